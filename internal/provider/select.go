package provider

import (
	"strings"

	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
)

// Provider kind names accepted in configuration.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "claude"
	KindMock      = "mock"
)

// Settings carries the configuration slice relevant to provider selection.
// It is deliberately decoupled from the application config package so the
// selection logic stays a pure function testable without the environment.
type Settings struct {
	// Kind names the requested variant: "openai", "claude", or "mock".
	Kind string
	// OpenAIKey / OpenAIModel configure the OpenAI variant.
	OpenAIKey   string
	OpenAIModel string
	// Temperature applies to the OpenAI variant only.
	Temperature float64
	// AnthropicKey / AnthropicModel configure the Claude variant.
	AnthropicKey   string
	AnthropicModel string
}

// Select maps configuration to a provider variant. Unknown kinds resolve to
// the mock. Select never checks the network: it only wires credentials. The
// caller (the translation orchestrator) is responsible for downgrading an
// unavailable selection to the mock.
func Select(s Settings, table *glossary.Table) Provider {
	switch strings.ToLower(strings.TrimSpace(s.Kind)) {
	case KindOpenAI:
		return NewOpenAI(s.OpenAIKey, s.OpenAIModel, s.Temperature, table)
	case KindAnthropic:
		return NewAnthropic(s.AnthropicKey, s.AnthropicModel, table)
	default:
		return NewMock(table)
	}
}
