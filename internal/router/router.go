package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/middleware"
)

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	handlers []handler.Registrar
	health   handler.Registrar
	metricsH handler.Registrar
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	CORSConfig     middleware.CORSConfig
	MetricsPrefix  string
	Registerer     prometheus.Registerer
	Tokens         middleware.TokenParser
}

// NewRouter wires the middleware chain. health and metricsH are mounted
// outside the rate limiter; handlers are mounted under /api/v1.
func NewRouter(config RouterConfig, health, metricsH handler.Registrar, handlers ...handler.Registrar) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	registerer := config.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	r := &Router{
		engine:   engine,
		config:   config,
		handlers: handlers,
		health:   health,
		metricsH: metricsH,
		metrics:  initRouterMetrics(config.MetricsPrefix, registerer),
	}

	// Add core middlewares
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		r.metricsMiddleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)

	return r
}

func (r *Router) Setup() {
	if r.metricsH != nil {
		r.metricsH.RegisterRoutes(&r.engine.RouterGroup)
	}

	api := r.engine.Group("/api/v1")

	// Health check endpoints
	if r.health != nil {
		r.health.RegisterRoutes(api)
	}

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if r.config.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = r.config.MaxBodyBytes
	}

	routes := api.Group("")
	if r.config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.RateLimit,
			Burst: r.config.RateBurst,
		})
		routes.Use(limiter.RateLimit())
	}
	routes.Use(
		middleware.SizeLimit(sizeLimit),
		middleware.Timeout(middleware.TimeoutConfig{Duration: r.config.RequestTimeout}),
		middleware.Session(r.config.Tokens),
	)

	for _, h := range r.handlers {
		h.RegisterRoutes(routes)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Metrics initialization and middleware
func initRouterMetrics(prefix string, reg prometheus.Registerer) *routerMetrics {
	if prefix == "" {
		prefix = "http"
	}
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	reg.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Unmatched paths share one label to bound cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := c.Writer.Status()
		status := strconv.Itoa(code)
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		switch {
		case code >= 500:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		case code >= 400:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
