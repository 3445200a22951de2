// Package http assembles the studio's JSON API on gin.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http/handlers"
	"github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http/middleware"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// RouterConfig aggregates the handlers and middleware settings needed to
// build the route tree.  Nil handlers leave their routes unmounted.
type RouterConfig struct {
	MoleculeHandler   *handlers.MoleculeHandler
	PredictionHandler *handlers.PredictionHandler
	SessionHandler    *handlers.SessionHandler
	HealthHandler     *handlers.HealthHandler

	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
	MetricsPath    string

	CORS        middleware.CORSConfig
	Logging     middleware.LoggingConfig
	Session     middleware.SessionConfig
	MaxBodySize int64
}

// NewRouter builds the gin engine.  Paths are routed on their raw form so
// that SMILES containing an escaped "/" reach the :smiles parameter intact.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = prometheus.NewNoopMetrics()
	}
	if cfg.Logging.SkipPaths == nil && cfg.Logging.SlowThreshold == 0 {
		cfg.Logging = middleware.DefaultLoggingConfig()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.HandleMethodNotAllowed = true

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Logger),
		middleware.RequestLogging(cfg.Logger, cfg.Logging),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(cfg.Metrics),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	r.NoRoute(func(c *gin.Context) {
		middleware.WriteError(c, apperrors.NotFound("route not found").WithDetail(c.Request.URL.Path))
	})
	r.NoMethod(func(c *gin.Context) {
		middleware.WriteError(c, apperrors.New(apperrors.ErrCodeBadRequest, "method not allowed").WithDetail(c.Request.Method))
	})

	if h := cfg.HealthHandler; h != nil {
		r.GET("/healthz", h.Liveness)
		r.GET("/readyz", h.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET(cfg.MetricsPath, gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	registerMoleculeRoutes(api, cfg.MoleculeHandler)
	registerPredictionRoutes(api, cfg.PredictionHandler)
	registerSessionRoutes(api.Group("/session", middleware.Session(cfg.Session)), cfg.SessionHandler)
	return r
}

func registerMoleculeRoutes(r *gin.RouterGroup, h *handlers.MoleculeHandler) {
	if h == nil {
		return
	}
	mr := r.Group("/molecules")
	mr.POST("/normalize", h.Normalize)
	mr.POST("/normalize/sdf", h.NormalizeSDF)
	mr.GET("/:smiles/info", h.Info)
}

func registerPredictionRoutes(r *gin.RouterGroup, h *handlers.PredictionHandler) {
	if h == nil {
		return
	}
	r.POST("/predictions", h.Predict)
	r.POST("/features3d", h.Features3D)
}

func registerSessionRoutes(r *gin.RouterGroup, h *handlers.SessionHandler) {
	if h == nil {
		return
	}
	r.GET("", h.Get)
	r.DELETE("", h.Delete)
	r.POST("/molecule", h.SubmitMolecule)
	r.POST("/predictions", h.RunPrediction)
	r.POST("/features3d", h.Compute3DFeatures)
	r.GET("/features3d/export", h.Export)
}
