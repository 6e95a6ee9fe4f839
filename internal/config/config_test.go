package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Translation.Provider != "mock" {
		t.Errorf("Provider = %q, want mock", cfg.Translation.Provider)
	}
	if cfg.Translation.PivotLang != "ko" {
		t.Errorf("PivotLang = %q, want ko", cfg.Translation.PivotLang)
	}
	if cfg.Cache.TTL != 30*24*time.Hour {
		t.Errorf("Cache.TTL = %v, want 720h", cfg.Cache.TTL)
	}
	if cfg.Translation.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Translation.MaxAttempts)
	}
}

func TestLoadOverridesAndNormalization(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Anthropic")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("GIN_MODE", "bogus")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("TRANSLATE_BASE_DELAY", "1s")
	t.Setenv("TRANSLATE_MAX_DELAY", "4s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Translation.Provider != "claude" {
		t.Errorf("Provider = %q, want claude", cfg.Translation.Provider)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want release", cfg.GinMode)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Translation.BaseDelay != time.Second || cfg.Translation.MaxDelay != 4*time.Second {
		t.Errorf("delays = %v/%v", cfg.Translation.BaseDelay, cfg.Translation.MaxDelay)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bad provider", "AI_PROVIDER", "google", "AI_PROVIDER"},
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"negative rps", "RATE_RPS", "-1", "RATE_RPS"},
		{"zero burst", "RATE_BURST", "0", "RATE_BURST"},
		{"bad temperature", "AI_TEMPERATURE", "3.5", "AI_TEMPERATURE"},
		{"zero attempts", "TRANSLATE_MAX_ATTEMPTS", "0", "TRANSLATE_MAX_ATTEMPTS"},
		{"bad sampler", "OTEL_TRACES_SAMPLER_ARG", "2", "OTEL_TRACES_SAMPLER_ARG"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestHelperParsers(t *testing.T) {
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_BOOL", "yes")
	t.Setenv("X_INT", "not-an-int")

	if d := getdur("X_DUR", time.Second); d != 90*time.Second {
		t.Errorf("getdur = %v", d)
	}
	if !getbool("X_BOOL", false) {
		t.Error("getbool(yes) = false")
	}
	if n := getint("X_INT", 7); n != 7 {
		t.Errorf("getint fallback = %d, want 7", n)
	}
	if got := splitCSV(" a, ,b "); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitCSV = %v", got)
	}
}
