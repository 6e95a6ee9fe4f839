package provider

import (
	"context"
	"fmt"

	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
)

// Mock is the deterministic glossary-backed provider. It is always
// available, needs no network, and serves three roles: local development,
// tests, and the degradation target when a vendor provider is misconfigured
// or exhausted its retries.
type Mock struct {
	table *glossary.Table
}

// NewMock constructs a mock provider over the given term table. A nil table
// is allowed; every call then yields the tagged placeholder.
func NewMock(table *glossary.Table) *Mock {
	return &Mock{table: table}
}

// Name implements Provider.
func (m *Mock) Name() string { return "Mock" }

// Available implements Provider. The mock has no credentials to miss.
func (m *Mock) Available() bool { return true }

// Translate performs direct glossary substitution when the trimmed input
// exactly matches a term for this direction. Anything else returns a clearly
// tagged placeholder so that mock output can never be mistaken for a real
// translation.
func (m *Mock) Translate(_ context.Context, text, sourceLang, targetLang, _ string) (string, error) {
	if m.table != nil {
		if out, ok := m.table.Lookup(text, sourceLang, targetLang); ok {
			return out, nil
		}
	}
	return fmt.Sprintf("[MOCK] %s (translated from %s to %s)",
		text, langName(sourceLang), langName(targetLang)), nil
}
