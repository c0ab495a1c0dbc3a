package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medrecords-api/internal/handler/health"
	promHandler "github.com/jwalitptl/medrecords-api/internal/handler/prometheus"
	"github.com/jwalitptl/medrecords-api/internal/middleware"
)

type pingRoute struct{}

func (pingRoute) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
}

func newTestRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()
	registry := prometheus.NewRegistry()
	cfg.Mode = gin.TestMode
	cfg.Registerer = registry
	cfg.MetricsPrefix = "records_http"
	cfg.CORSConfig = middleware.DefaultCORSConfig()

	r := NewRouter(cfg, health.NewHandler(nil), promHandler.New(registry), pingRoute{})
	r.Setup()
	return r.Engine()
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRoutesMounted(t *testing.T) {
	engine := newTestRouter(t, RouterConfig{RequestTimeout: time.Second})

	w := get(engine, "/api/v1/ping")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/health/live").Code)
	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/health/ready").Code)
	assert.Equal(t, http.StatusNotFound, get(engine, "/api/v1/nope").Code)
}

func TestMetricsExposeRequests(t *testing.T) {
	engine := newTestRouter(t, RouterConfig{})

	get(engine, "/api/v1/ping")
	w := get(engine, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `records_http_requests_total{method="GET",path="/api/v1/ping",status="200"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestRateLimitSparesHealth(t *testing.T) {
	engine := newTestRouter(t, RouterConfig{RateLimit: rate.Every(time.Hour), RateBurst: 1})

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/ping").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(engine, "/api/v1/ping").Code)
	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/health/live").Code)
}
