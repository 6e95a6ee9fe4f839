// Package provider implements the pluggable translation capability. A
// Provider is one concrete way to turn text in one language into text in
// another: a vendor-backed model (OpenAI, Anthropic) or the deterministic
// glossary-backed mock.
//
// The set of variants is closed and selection is a pure function of
// configuration (see Select). Providers share the glossary context builder
// and the prompt templates in prompt.go; they differ only in transport.
//
// Error contract: Translate returns ErrUnavailable when the provider has no
// usable credentials, a *TransientError for timeout/connection classes the
// orchestrator may retry, and a *PermanentError for rejected requests that
// must not be retried.
package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Context tags understood by the prompt builder.
const (
	ContextMedical = "medical"
	ContextGeneral = "general"
)

// ErrUnavailable indicates the provider is not configured (e.g. missing API
// key). It is permanent until reconfiguration and is never retried; the
// orchestrator reacts by downgrading to the mock provider.
var ErrUnavailable = errors.New("translation provider is not available")

// Provider is the uniform translation capability implemented by every
// variant.
type Provider interface {
	// Translate converts text from sourceLang to targetLang. The context
	// tag (e.g. "medical") selects the prompt persona; it is not a
	// cancellation context.
	Translate(ctx context.Context, text, sourceLang, targetLang, contextTag string) (string, error)

	// Available reports whether the provider has valid configuration and
	// can be expected to serve calls.
	Available() bool

	// Name is a stable human-readable identity, used in cache keys and
	// diagnostics. It must change when the underlying model changes,
	// because different models do not agree on translations.
	Name() string
}

// TransientError wraps a failure class worth retrying: timeouts, connection
// resets, throttling, upstream 5xx.
type TransientError struct {
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string { return fmt.Sprintf("transient provider error: %v", e.Err) }

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps a failure that retrying cannot fix: malformed
// requests, rejected content, invalid credentials discovered at call time.
type PermanentError struct {
	Err error
}

// Error implements the error interface.
func (e *PermanentError) Error() string { return fmt.Sprintf("permanent provider error: %v", e.Err) }

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err belongs to the retryable failure class.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// langName resolves a language code to its native display name ("ko" →
// "한국어", "vi" → "Tiếng Việt"). Unknown codes fall back to the code itself,
// which keeps prompts understandable for any tag the client sends.
func langName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}
