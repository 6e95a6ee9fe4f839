package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func metricsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/rooms/:id", func(c *gin.Context) {
		c.String(http.StatusOK, `{"id":%q}`, c.Param("id"))
	})
	r.GET("/nobody", func(c *gin.Context) {
		c.Status(http.StatusNoContent) // no body, size stays -1
	})
	return r
}

func TestMetricsRouteLabelCollapsesParams(t *testing.T) {
	r := metricsRouter()

	base := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/rooms/:id", "200"))

	for _, id := range []string{"room_aaa", "room_bbb"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/"+id, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET /rooms/%s -> %d", id, w.Code)
		}
	}

	// Both requests land on the same route-label series.
	got := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/rooms/:id", "200"))
	if got != base+2 {
		t.Fatalf("counter /rooms/:id 200 = %v; want %v", got, base+2)
	}
}

func TestMetricsUnmatchedRouteFallsBackToRawPath(t *testing.T) {
	r := metricsRouter()

	base := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/missing", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /missing -> %d", w.Code)
	}

	got := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/missing", "404"))
	if got != base+1 {
		t.Fatalf("404 fallback counter = %v; want %v", got, base+1)
	}
}

func TestMetricsInflightDrainsAndBodylessResponses(t *testing.T) {
	r := metricsRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nobody", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("GET /nobody -> %d", w.Code)
	}

	// The size histogram is skipped for size<0 but the request still
	// completes and the gauge returns to zero.
	if inFlight := testutil.ToFloat64(reqInflight); inFlight != 0 {
		t.Fatalf("reqInflight = %v; want 0", inFlight)
	}
}
