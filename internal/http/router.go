// Package httpapi wires the HTTP transport (Gin) to the relay, translation
// pipeline, persistence, and middleware. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging, panic recovery,
// metrics, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/captain-yun7/medtranslate-v1/internal/auth"
	"github.com/captain-yun7/medtranslate-v1/internal/cache"
	"github.com/captain-yun7/medtranslate-v1/internal/config"
	"github.com/captain-yun7/medtranslate-v1/internal/http/handlers"
	"github.com/captain-yun7/medtranslate-v1/internal/http/middleware"
	"github.com/captain-yun7/medtranslate-v1/internal/relay"
	"github.com/captain-yun7/medtranslate-v1/internal/session"
	"github.com/captain-yun7/medtranslate-v1/internal/translate"
)

// Deps bundles everything the router needs. All fields are required except
// Issuer, which disables the agent-token guard when nil.
type Deps struct {
	DB         *gorm.DB
	Translator *translate.Service
	Cache      *cache.Redis
	Registry   *session.Registry
	Relay      *relay.Relay
	Issuer     *auth.Issuer
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, the websocket
// entry point, and the REST API under /api.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Response compression (websocket and metrics excluded)
//  8. Rate limiter (per agent/IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compression; long-lived and scrape endpoints stay uncompressed
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	// 8) Token-bucket rate limiter per agent/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByAgentOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := handlers.New(d.DB, d.Translator, d.Cache, d.Registry, d.Issuer)

	// Live chat transport
	r.GET("/ws", handlers.ServeWS(d.Relay))

	// Public API
	api := r.Group("/api")
	{
		// Rooms
		chat := api.Group("/chat")
		{
			chat.POST("/rooms", h.CreateRoom)
			chat.GET("/rooms", h.ListRooms)
			chat.GET("/rooms/waiting", h.WaitingRooms)
			chat.GET("/rooms/:id", h.GetRoom)
			chat.GET("/rooms/:id/messages", h.ListRoomMessages)
			chat.DELETE("/rooms/:id", h.EndRoom)
		}

		// Translation probe
		api.POST("/translation/test", h.TestTranslation)

		// Agent login
		if d.Issuer != nil {
			api.POST("/auth/login", h.Login)
		}

		// Monitoring; agent token required when an issuer is configured
		mon := api.Group("/monitoring")
		if d.Issuer != nil {
			mon.Use(middleware.AgentAuth(func(token string) (string, string, error) {
				claims, err := d.Issuer.Verify(token)
				if err != nil {
					return "", "", err
				}
				return claims.AgentID, claims.Username, nil
			}))
		}
		mon.GET("/cache/stats", h.CacheStats)
		mon.GET("/cache/memory", h.CacheMemory)
		mon.POST("/cache/stats/reset", h.ResetCacheStats)
		mon.GET("/provider", h.ProviderInfo)
		mon.GET("/sessions", h.Sessions)
		mon.GET("/rooms", h.RoomStats)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
