package translate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
	"github.com/captain-yun7/medtranslate-v1/internal/provider"
)

// ----- Fakes -----

// fakeProvider scripts a sequence of results; calls past the script reuse
// the last entry.
type fakeProvider struct {
	name      string
	available bool
	script    []error
	out       string
	calls     int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) Translate(_ context.Context, text, _, _, _ string) (string, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	if idx >= 0 && f.script[idx] != nil {
		return "", f.script[idx]
	}
	if f.out != "" {
		return f.out, nil
	}
	return "translated:" + text, nil
}

// memStore is an in-memory cache store.
type memStore struct {
	mu   sync.Mutex
	data map[string]string

	gets, sets int
	// broken makes every operation behave like an unreachable backend.
	broken bool
}

func newMemStore() *memStore { return &memStore{data: make(map[string]string)} }

func (m *memStore) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.broken {
		return "", false
	}
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.broken {
		return false
	}
	m.data[key] = value
	return true
}

func (m *memStore) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return false
	}
	delete(m.data, key)
	return true
}

// noSleep disables backoff waits for the duration of a test.
func noSleep(t *testing.T) {
	t.Helper()
	orig := sleep
	sleep = func(context.Context, time.Duration) {}
	t.Cleanup(func() { sleep = orig })
}

// ----- Tests -----

func TestTranslate_CacheHitSkipsProvider(t *testing.T) {
	p := &fakeProvider{name: "Fake", available: true}
	store := newMemStore()
	s := New(p, glossary.DefaultMedical(), store)

	req := Request{Text: "Xin chào", SourceLang: "vi", TargetLang: "ko"}

	first := s.Translate(context.Background(), req)
	if first.Cached {
		t.Fatal("first call must not be a cache hit")
	}
	second := s.Translate(context.Background(), req)
	if !second.Cached {
		t.Fatal("second call must be a cache hit")
	}
	if second.Text != first.Text {
		t.Errorf("cached text %q != original %q", second.Text, first.Text)
	}
	if p.calls != 1 {
		t.Errorf("provider invoked %d times; want exactly 1", p.calls)
	}
}

func TestTranslate_CacheKeyIncludesProvider(t *testing.T) {
	a := cacheKey("OpenAI-gpt-4o", "text", "vi", "ko")
	b := cacheKey("Claude-sonnet", "text", "vi", "ko")
	if a == b {
		t.Fatal("cache keys must differ across providers")
	}
	if !strings.HasPrefix(a, "trans:") {
		t.Errorf("cache key missing trans: prefix: %q", a)
	}
}

func TestTranslate_RetriesTransientThenSucceeds(t *testing.T) {
	noSleep(t)

	transient := &provider.TransientError{Err: errors.New("timeout")}
	p := &fakeProvider{
		name:      "Flaky",
		available: true,
		script:    []error{transient, transient, nil},
		out:       "결과",
	}
	s := New(p, nil, newMemStore())

	res := s.Translate(context.Background(), Request{Text: "hi", SourceLang: "en", TargetLang: "ko"})
	if res.Text != "결과" {
		t.Errorf("Text = %q; want 결과", res.Text)
	}
	if p.calls != 3 {
		t.Errorf("provider invoked %d times; want 3", p.calls)
	}
}

func TestTranslate_PermanentFailureIsNotRetried(t *testing.T) {
	noSleep(t)

	p := &fakeProvider{
		name:      "Strict",
		available: true,
		script:    []error{&provider.PermanentError{Err: errors.New("rejected")}},
	}
	s := New(p, nil, newMemStore())

	res := s.Translate(context.Background(), Request{Text: "hi", SourceLang: "en", TargetLang: "ko"})
	if p.calls != 1 {
		t.Errorf("provider invoked %d times; want 1 (no retries)", p.calls)
	}
	if !strings.Contains(res.Text, "[Translation Failed] hi") {
		t.Errorf("expected failure marker, got %q", res.Text)
	}
}

func TestTranslate_ExhaustedRetriesFallBackToGlossary(t *testing.T) {
	noSleep(t)

	transient := &provider.TransientError{Err: errors.New("connection reset")}
	p := &fakeProvider{
		name:      "Down",
		available: true,
		script:    []error{transient, transient, transient},
	}
	g := glossary.New("ko").Add("예약", map[string]string{"en": "appointment"})
	s := New(p, g, newMemStore())

	res := s.Translate(context.Background(), Request{Text: "예약", SourceLang: "ko", TargetLang: "en"})
	if res.Text != "appointment" {
		t.Errorf("glossary fallback = %q; want appointment", res.Text)
	}
	if p.calls != 3 {
		t.Errorf("provider invoked %d times; want 3 (attempt ceiling)", p.calls)
	}

	// Fallbacks are not cached: a healthy provider should get another shot.
	res = s.Translate(context.Background(), Request{Text: "예약", SourceLang: "ko", TargetLang: "en"})
	if res.Cached {
		t.Error("fallback result must not be served from cache")
	}
}

func TestTranslate_BrokenCacheStillTranslates(t *testing.T) {
	p := &fakeProvider{name: "Fake", available: true}
	store := newMemStore()
	store.broken = true
	s := New(p, nil, store)

	res := s.Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "ko"})
	if res.Cached {
		t.Fatal("broken cache cannot produce hits")
	}
	if res.Text != "translated:hello" {
		t.Errorf("Text = %q", res.Text)
	}
	if p.calls != 1 {
		t.Errorf("provider invoked %d times; want 1", p.calls)
	}
}

func TestNew_DowngradesUnavailableProvider(t *testing.T) {
	p := &fakeProvider{name: "OpenAI-gpt-4o", available: false}
	s := New(p, glossary.DefaultMedical(), newMemStore())

	if !s.Downgraded() {
		t.Fatal("expected downgrade to mock")
	}
	info := s.Info()
	if info.Provider != "Mock" || info.Kind != provider.KindMock || !info.Available {
		t.Errorf("Info() = %+v; want mock snapshot", info)
	}

	// The degraded service still serves deterministic translations.
	res := s.Translate(context.Background(), Request{Text: "예약", SourceLang: "ko", TargetLang: "en"})
	if res.Text != "appointment" {
		t.Errorf("Text = %q; want appointment", res.Text)
	}
}

func TestTranslate_DefaultContextIsMedical(t *testing.T) {
	var gotContext string
	p := &ctxCapturingProvider{captured: &gotContext}
	s := New(p, nil, newMemStore())

	s.Translate(context.Background(), Request{Text: "hi", SourceLang: "en", TargetLang: "ko"})
	if gotContext != provider.ContextMedical {
		t.Errorf("context tag = %q; want medical", gotContext)
	}
}

type ctxCapturingProvider struct {
	captured *string
}

func (p *ctxCapturingProvider) Name() string    { return "Capture" }
func (p *ctxCapturingProvider) Available() bool { return true }
func (p *ctxCapturingProvider) Translate(_ context.Context, text, _, _, contextTag string) (string, error) {
	*p.captured = contextTag
	return text, nil
}
