// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, translation provider selection, caching,
// rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "medtranslate")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// TranslationConfig selects and parameterizes the AI translation backend.
type TranslationConfig struct {
	Provider       string        // AI_PROVIDER: openai|claude|mock
	OpenAIKey      string        // OPENAI_API_KEY
	OpenAIModel    string        // OPENAI_MODEL
	AnthropicKey   string        // ANTHROPIC_API_KEY
	AnthropicModel string        // ANTHROPIC_MODEL
	Temperature    float64       // AI_TEMPERATURE in [0..2]
	PivotLang      string        // PIVOT_LANG: the agent-side language
	MaxAttempts    int           // TRANSLATE_MAX_ATTEMPTS
	BaseDelay      time.Duration // TRANSLATE_BASE_DELAY
	MaxDelay       time.Duration // TRANSLATE_MAX_DELAY
}

// CacheConfig defines the Redis translation cache settings.
type CacheConfig struct {
	RedisURL string        // REDIS_URL (e.g. "redis://localhost:6379/0")
	TTL      time.Duration // CACHE_TTL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath      string // SQLite path
	JWTSecret   string // HMAC secret for agent tokens
	Translation TranslationConfig
	Cache       CacheConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath:    getenv("DB_PATH", "app.db"),
		JWTSecret: getenv("JWT_SECRET", ""),
		Translation: TranslationConfig{
			Provider:       strings.ToLower(getenv("AI_PROVIDER", "mock")),
			OpenAIKey:      getenv("OPENAI_API_KEY", ""),
			OpenAIModel:    getenv("OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicKey:   getenv("ANTHROPIC_API_KEY", ""),
			AnthropicModel: getenv("ANTHROPIC_MODEL", ""),
			Temperature:    getfloat("AI_TEMPERATURE", 0.3),
			PivotLang:      getenv("PIVOT_LANG", "ko"),
			MaxAttempts:    getint("TRANSLATE_MAX_ATTEMPTS", 3),
			BaseDelay:      getdur("TRANSLATE_BASE_DELAY", 2*time.Second),
			MaxDelay:       getdur("TRANSLATE_MAX_DELAY", 10*time.Second),
		},
		Cache: CacheConfig{
			RedisURL: getenv("REDIS_URL", "redis://localhost:6379/0"),
			TTL:      getdur("CACHE_TTL", 30*24*time.Hour),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "medtranslate"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Translation.Provider == "anthropic" {
		cfg.Translation.Provider = "claude"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	switch cfg.Translation.Provider {
	case "openai", "claude", "mock":
	default:
		return cfg, errors.New("AI_PROVIDER must be one of: openai, claude, mock")
	}
	if cfg.Translation.Temperature < 0 || cfg.Translation.Temperature > 2 {
		return cfg, errors.New("AI_TEMPERATURE must be in [0,2]")
	}
	if strings.TrimSpace(cfg.Translation.PivotLang) == "" {
		return cfg, errors.New("PIVOT_LANG must not be empty")
	}
	if cfg.Translation.MaxAttempts < 1 {
		return cfg, errors.New("TRANSLATE_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Translation.BaseDelay <= 0 || cfg.Translation.MaxDelay < cfg.Translation.BaseDelay {
		return cfg, errors.New("TRANSLATE_BASE_DELAY must be > 0 and <= TRANSLATE_MAX_DELAY")
	}
	if cfg.Cache.TTL <= 0 {
		return cfg, errors.New("CACHE_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
