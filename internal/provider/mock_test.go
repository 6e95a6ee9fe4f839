package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
)

func TestMock_GlossarySubstitution(t *testing.T) {
	t.Parallel()

	g := glossary.New("ko").Add("예약", map[string]string{"en": "appointment"})
	m := NewMock(g)

	got, err := m.Translate(context.Background(), "예약", "ko", "en", ContextMedical)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "appointment" {
		t.Fatalf("Translate(예약, ko, en) = %q; want appointment", got)
	}
}

func TestMock_PlaceholderForUnknownTerm(t *testing.T) {
	t.Parallel()

	m := NewMock(glossary.DefaultMedical())

	got, err := m.Translate(context.Background(), "어디가 아프세요?", "ko", "en", ContextMedical)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(got, "[MOCK]") {
		t.Errorf("placeholder missing [MOCK] marker: %q", got)
	}
	if !strings.Contains(got, "어디가 아프세요?") {
		t.Errorf("placeholder should carry the original text: %q", got)
	}
}

func TestMock_AlwaysAvailable(t *testing.T) {
	t.Parallel()

	m := NewMock(nil)
	if !m.Available() {
		t.Fatal("mock must always be available")
	}
	if m.Name() != "Mock" {
		t.Fatalf("Name() = %q; want Mock", m.Name())
	}
}

func TestMock_LanguageNamesInPlaceholder(t *testing.T) {
	t.Parallel()

	m := NewMock(nil)
	got, _ := m.Translate(context.Background(), "hello", "en", "ko", ContextGeneral)
	// Native display names, not the raw codes.
	if !strings.Contains(got, "English") || !strings.Contains(got, "한국어") {
		t.Errorf("placeholder should use display names: %q", got)
	}
}
