// Package translate implements the translation orchestrator: the component
// that owns provider selection, caching, retry/backoff, and the fallback
// policy. It is the only writer of the cache store.
//
// Availability beats fidelity here: Translate never returns an error. When
// the provider is exhausted or rejects the request, the caller gets a
// deterministic fallback string instead, because a chat turn must not die on
// a translation failure.
//
// Observability: Translate is OpenTelemetry-instrumented and feeds a
// per-outcome Prometheus counter (cache / provider / fallback).
package translate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/captain-yun7/medtranslate-v1/internal/cache"
	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
	"github.com/captain-yun7/medtranslate-v1/internal/provider"
)

// Defaults for the retry/backoff and cache policy.
const (
	DefaultTTL         = 30 * 24 * time.Hour // providers rarely change their mind about a sentence
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 10 * time.Second
)

// translations counts orchestrator outcomes: served from cache, from the
// provider, or from the deterministic fallback.
var translations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "translation_requests_total",
		Help: "Total number of translation requests by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(translations)
}

// sleep is a seam so tests can run the backoff schedule without waiting.
var sleep = func(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Request is one immutable translation request.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	// Context tags the domain ("medical" by default); it selects the
	// provider prompt persona.
	Context string
}

// Result is the orchestrator's answer. Provenance beyond the cached flag
// (which provider, retry count) is observable through stats and logs, not
// embedded here.
type Result struct {
	Text   string
	Cached bool
}

// ProviderInfo is a diagnostic snapshot of the active provider.
type ProviderInfo struct {
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
	Kind      string `json:"kind"`
}

// Service is the translation orchestrator. Construct with New; the zero
// value is not usable.
type Service struct {
	// Provider is the active translation backend, fixed at construction.
	Provider provider.Provider
	// Table is the shared glossary, used for the deterministic fallback.
	Table *glossary.Table
	// Cache is the result store; may be an always-miss store.
	Cache cache.Store

	// TTL is the cache entry lifetime.
	TTL time.Duration
	// MaxAttempts caps provider invocations per request (including the
	// first one).
	MaxAttempts int
	// BaseDelay and MaxDelay shape the exponential backoff between
	// transient failures.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	downgraded bool
}

// New builds a Service around the selected provider, degrading to the mock
// when the selection reports itself unavailable. Misconfiguration is a
// recoverable condition: it is logged as a warning, never fatal.
func New(p provider.Provider, table *glossary.Table, store cache.Store) *Service {
	s := &Service{
		Provider:    p,
		Table:       table,
		Cache:       store,
		TTL:         DefaultTTL,
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
	if p == nil || !p.Available() {
		requested := "none"
		if p != nil {
			requested = p.Name()
		}
		log.Warn().
			Str("requested", requested).
			Msg("translation provider not available, using mock provider")
		s.Provider = provider.NewMock(table)
		s.downgraded = true
	}
	log.Info().Str("provider", s.Provider.Name()).Msg("translation provider ready")
	return s
}

// Translate resolves a request through cache, provider, and fallback, in
// that order. It never returns an error.
func (s *Service) Translate(ctx context.Context, req Request) Result {
	tr := otel.Tracer("translate/Service")
	ctx, span := tr.Start(ctx, "Translate",
		trace.WithAttributes(
			attribute.String("translate.source", req.SourceLang),
			attribute.String("translate.target", req.TargetLang),
			attribute.String("translate.provider", s.Provider.Name()),
		),
	)
	defer span.End()

	if req.Context == "" {
		req.Context = provider.ContextMedical
	}

	key := cacheKey(s.Provider.Name(), req.Text, req.SourceLang, req.TargetLang)
	if val, ok := s.Cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("translate.cached", true))
		translations.WithLabelValues("cache").Inc()
		return Result{Text: val, Cached: true}
	}

	out, err := s.translateWithRetry(ctx, req)
	if err != nil {
		log.Error().Err(err).
			Str("source", req.SourceLang).
			Str("target", req.TargetLang).
			Msg("translation failed, serving fallback")
		translations.WithLabelValues("fallback").Inc()
		return Result{Text: s.fallback(req)}
	}

	s.Cache.Set(ctx, key, out, s.TTL)
	translations.WithLabelValues("provider").Inc()
	return Result{Text: out}
}

// translateWithRetry invokes the provider up to MaxAttempts times, backing
// off exponentially between transient failures. Non-transient failures
// (misconfiguration, rejected requests) abort immediately.
func (s *Service) translateWithRetry(ctx context.Context, req Request) (string, error) {
	var lastErr error
	delay := s.BaseDelay
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		out, err := s.Provider.Translate(ctx, req.Text, req.SourceLang, req.TargetLang, req.Context)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !provider.IsTransient(err) {
			break
		}
		if attempt == s.MaxAttempts {
			break
		}
		log.Warn().Err(err).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("transient translation failure, retrying")
		sleep(ctx, delay)
		delay *= 2
		if delay > s.MaxDelay {
			delay = s.MaxDelay
		}
	}
	return "", lastErr
}

// fallback produces the deterministic translation used when the provider
// path is exhausted: exact glossary substitution when the text matches a
// term, otherwise a tagged failure marker. One policy, applied everywhere.
func (s *Service) fallback(req Request) string {
	if s.Table != nil {
		if out, ok := s.Table.Lookup(req.Text, req.SourceLang, req.TargetLang); ok {
			return out
		}
	}
	return "[Translation Failed] " + req.Text
}

// Info returns a diagnostic snapshot of the active provider. No side
// effects.
func (s *Service) Info() ProviderInfo {
	return ProviderInfo{
		Provider:  s.Provider.Name(),
		Available: s.Provider.Available(),
		Kind:      kindOf(s.Provider),
	}
}

// Downgraded reports whether the configured provider was replaced with the
// mock at startup.
func (s *Service) Downgraded() bool { return s.downgraded }

// kindOf maps a provider variant to its configuration kind name.
func kindOf(p provider.Provider) string {
	switch p.(type) {
	case *provider.OpenAI:
		return provider.KindOpenAI
	case *provider.Anthropic:
		return provider.KindAnthropic
	case *provider.Mock:
		return provider.KindMock
	default:
		return "unknown"
	}
}

// cacheKey derives the stable cache key for one (provider, text, direction)
// tuple. The provider name is part of the key on purpose: different
// providers are not guaranteed to agree, so entries must not collide across
// a provider switch.
func cacheKey(providerName, text, sourceLang, targetLang string) string {
	sum := md5.Sum([]byte(providerName + ":" + text + ":" + sourceLang + ":" + targetLang))
	return "trans:" + hex.EncodeToString(sum[:])
}
