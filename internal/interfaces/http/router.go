package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Substructure/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the route tree.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	SubstructureHandler *handlers.SubstructureHandler
	LibraryHandler      *handlers.LibraryHandler
	JobHandler          *handlers.JobHandler
	HealthHandler       *handlers.HealthHandler

	CORS      *middleware.CORSConfig
	RateLimit *middleware.RateLimitConfig
	Logging   middleware.LoggingConfig
	// MaxBodySize caps request bodies; 0 disables the cap.
	MaxBodySize int64

	Logger logging.Logger
	// Metrics receives the request metrics; MetricsHandler serves /metrics.
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine serving the REST API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, cfg.Logging))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.RateLimit != nil {
		rl := *cfg.RateLimit
		r.Use(middleware.RateLimit(middleware.NewKeyedLimiter(rl.RequestsPerSecond, rl.BurstSize, rl.IdleTTL), rl))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	registerSubstructureRoutes(api, cfg.SubstructureHandler)
	registerLibraryRoutes(api, cfg.LibraryHandler)
	registerJobRoutes(api, cfg.JobHandler)
	return r
}

// registerSubstructureRoutes mounts the single-target searches under /substructure.
func registerSubstructureRoutes(r *gin.RouterGroup, h *handlers.SubstructureHandler) {
	if h == nil {
		return
	}
	g := r.Group("/substructure")
	g.POST("/match", h.Match)
	g.POST("/any", h.Any)
	g.POST("/rings", h.Rings)
	g.POST("/aromatic", h.Aromatic)
}

// registerLibraryRoutes mounts library storage and screening under /library.
func registerLibraryRoutes(r *gin.RouterGroup, h *handlers.LibraryHandler) {
	if h == nil {
		return
	}
	g := r.Group("/library")
	g.POST("", h.CreateLibrary)
	g.GET("/:id", h.GetLibrary)
	g.POST("/:id/screen", h.Screen)
	g.POST("/molecules", h.AddMolecule)
	g.GET("/molecules/:id", h.GetMolecule)
}

// registerJobRoutes mounts asynchronous screening under /jobs.
func registerJobRoutes(r *gin.RouterGroup, h *handlers.JobHandler) {
	if h == nil {
		return
	}
	g := r.Group("/jobs")
	g.POST("/screen", h.Submit)
	g.GET("/:id", h.Status)
}

//Personal.AI order the ending
