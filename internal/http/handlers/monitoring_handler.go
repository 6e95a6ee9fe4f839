// Monitoring endpoints.
//
// These endpoints expose operational state for dashboards and debugging:
// translation cache hit rates and Redis memory, the active provider, live
// session counts, and aggregate room statistics. They return point-in-time
// snapshots; Prometheus metrics at /metrics remain the long-term record.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/captain-yun7/medtranslate-v1/internal/repo"
)

// CacheStats handles GET /monitoring/cache/stats.
func (h *Handlers) CacheStats(c *gin.Context) {
	connected := h.Cache.Ping(c.Request.Context()) == nil
	ok(c, http.StatusOK, gin.H{
		"connected": connected,
		"stats":     h.Cache.Stats(),
	})
}

// CacheMemory handles GET /monitoring/cache/memory.
func (h *Handlers) CacheMemory(c *gin.Context) {
	mem, err := h.Cache.Memory(c.Request.Context())
	if err != nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "cache unreachable")
		return
	}
	ok(c, http.StatusOK, mem)
}

// ResetCacheStats handles POST /monitoring/cache/stats/reset. Only the
// hit/miss counters are cleared; cached translations stay put.
func (h *Handlers) ResetCacheStats(c *gin.Context) {
	h.Cache.ResetStats()
	ok(c, http.StatusOK, gin.H{"message": "cache statistics reset"})
}

// ProviderInfo handles GET /monitoring/provider.
func (h *Handlers) ProviderInfo(c *gin.Context) {
	info := h.Translator.Info()
	ok(c, http.StatusOK, gin.H{
		"provider":   info.Provider,
		"kind":       info.Kind,
		"available":  info.Available,
		"downgraded": h.Translator.Downgraded(),
	})
}

// Sessions handles GET /monitoring/sessions: live session count plus the
// rooms currently waiting for an agent.
func (h *Handlers) Sessions(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"live":    h.Registry.Len(),
		"waiting": h.Registry.ListWaiting(),
	})
}

// RoomStats handles GET /monitoring/rooms: persisted room totals by status.
func (h *Handlers) RoomStats(c *gin.Context) {
	total, byStatus, err := repo.RoomStats(c.Request.Context(), h.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not aggregate rooms")
		return
	}
	ok(c, http.StatusOK, gin.H{"total": total, "by_status": byStatus})
}
