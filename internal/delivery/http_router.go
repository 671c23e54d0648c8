package delivery

import (
	"time"

	"campaigndash/internal/delivery/middleware"
	"campaigndash/pkg/config"
	"campaigndash/pkg/logger"
	"campaigndash/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

type HTTPRouter struct {
	handlers *HTTPHandlers
	logger   *logger.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	cfg      *config.Config
}

func NewHTTPRouter(
	handlers *HTTPHandlers,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *HTTPRouter {
	return &HTTPRouter{
		handlers: handlers,
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
		cfg:      cfg,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = r.cfg.Ingest.MaxUploadBytes

	requestTimeout := r.cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(requestTimeout))

	corsConfig := cors.DefaultConfig()
	if allowsAnyOrigin(r.cfg.Server.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = r.cfg.Server.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(corsConfig))

	uploadLimiter := rate.NewLimiter(rate.Limit(r.cfg.Ingest.UploadRateLimit), r.cfg.Ingest.UploadBurst)

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("/upload", middleware.RateLimit(uploadLimiter), r.handlers.UploadCampaigns)
			campaigns.GET("", r.handlers.GetCampaigns)
			campaigns.DELETE("", r.handlers.ClearCampaigns)
			campaigns.GET("/filter", r.handlers.GetFilter)
			campaigns.PUT("/filter", r.handlers.SetFilter)
			campaigns.GET("/stats", r.handlers.GetStats)
			campaigns.GET("/charts", r.handlers.GetCharts)
		}

		v1.GET("/dashboard", r.handlers.GetDashboard)
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler(r.gatherer))

	return router
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
