package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emersoneims/oracle-api/internal/config"
	"github.com/emersoneims/oracle-api/internal/handler"
	authhandler "github.com/emersoneims/oracle-api/internal/handler/auth"
	orghandler "github.com/emersoneims/oracle-api/internal/handler/organization"
	paymenthandler "github.com/emersoneims/oracle-api/internal/handler/payment"
	subhandler "github.com/emersoneims/oracle-api/internal/handler/subscription"
	"github.com/emersoneims/oracle-api/internal/middleware"
	"github.com/emersoneims/oracle-api/pkg/logger"
)

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	healthH *handler.HealthHandler
	authH   *authhandler.Handler
	orgH    *orghandler.Handler
	subH    *subhandler.Handler
	payH    *paymenthandler.Handler
	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func initRouterMetrics(namespace string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),
		requestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
	}
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH *handler.HealthHandler,
	authH *authhandler.Handler,
	orgH *orghandler.Handler,
	subH *subhandler.Handler,
	payH *paymenthandler.Handler,
	rateLimit config.RateLimitConfig,
	log *logger.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:  engine,
		auth:    auth,
		healthH: healthH,
		authH:   authH,
		orgH:    orgH,
		subH:    subH,
		payH:    payH,
		metrics: initRouterMetrics("oracle"),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(log),
		r.metricsMiddleware(),
	)

	if rateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   rateLimit.RequestsPerSecond,
			Burst: rateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api, r.auth)
	r.orgH.RegisterRoutes(api, r.auth)
	r.subH.RegisterRoutes(api, r.auth)
	r.payH.RegisterRoutes(api, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Use the route template, not the raw path, to bound
		// cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path,
			strconv.Itoa(c.Writer.Status())).Inc()
	}
}
