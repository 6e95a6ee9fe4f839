// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, which hardens responses from a JSON
// API expected to sit behind a reverse proxy. There is no CSP: the backend
// serves no HTML, and a policy header would only confuse API clients.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security for HTTPS requests only.
	// Enable it only when traffic is HTTPS end-to-end, proxy hop included.
	EnableHSTS bool
	// HSTSMaxAge is the HSTS lifetime; 180 days when unset.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store (plus the legacy Pragma/Expires
	// pair) so sensitive responses never land in shared caches.
	NoStore bool
	// EnablePolicy includes the browser feature-policy headers. Harmless
	// for non-browser clients.
	EnablePolicy bool
}

// SecurityHeaders returns a Gin middleware that sets a conservative header
// posture on every response:
//
//   - X-Content-Type-Options: nosniff, X-Frame-Options: DENY, and
//     Referrer-Policy: no-referrer, unconditionally
//   - Permissions-Policy and X-Permitted-Cross-Domain-Policies when
//     EnablePolicy is set
//   - the no-store trio when NoStore is set
//   - HSTS when enabled and the request actually arrived over HTTPS,
//     either terminated locally or signalled via X-Forwarded-Proto
//
// When a request id is already on the response, it is added to
// Access-Control-Expose-Headers so browser clients can read it back.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 180 * 24 * time.Hour
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			switch cur := h.Get(hdr); {
			case cur == "":
				h.Set(hdr, "X-Request-ID")
			case !strings.Contains(cur, "X-Request-ID"):
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request used HTTPS, either terminated here
// (r.TLS != nil) or at a proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
