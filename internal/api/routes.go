// routes.go - Route registration and middleware
package api

import (
	"net/http"
	"time"

	"github.com/filedrop/backend/internal/storage"
	"github.com/filedrop/backend/internal/upload"
	"github.com/filedrop/backend/internal/web"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Service     upload.Service
	Blobs       storage.BlobStore
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
	UploadLimit string
	Version     string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Upload UploadHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version),
		Upload: NewUploadHandler(deps.Service, deps.UploadLimit),
	}
}

// RegisterRoutes registers all routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, deps *Dependencies) {
	e.GET("/", handlers.Health.HandleRoot)
	e.GET("/api/health", handlers.Health.HandleHealth)

	dashboard := e.Group("/dashboard")
	dashboard.POST("", handlers.Upload.HandleUpload)
	dashboard.POST("/", handlers.Upload.HandleUpload)
	dashboard.GET("/dashboard", handlers.Upload.HandleList)

	if deps.Blobs != nil {
		web.RegisterBlobRoutes(e, deps.Blobs)
	}
	if deps.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
}

// MiddlewareConfig controls SetupMiddleware.
type MiddlewareConfig struct {
	Logger         *zap.Logger
	EnableCORS     bool
	AllowOrigins   []string
	BodyLimit      string
	LogRequests    bool
	ShowErrDetails bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e.HTTPErrorHandler = NewErrorHandler(log, cfg.ShowErrDetails)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	if cfg.LogRequests {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Path()
				return path == "/api/health" || path == "/metrics"
			},
			LogMethod:    true,
			LogURI:       true,
			LogStatus:    true,
			LogLatency:   true,
			LogRequestID: true,
			LogError:     true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				fields := []zap.Field{
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status),
					zap.Duration("latency", v.Latency),
					zap.String("request_id", v.RequestID),
				}
				if v.Error != nil {
					log.Warn("request", append(fields, zap.Error(v.Error))...)
					return nil
				}
				log.Info("request", fields...)
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if !cfg.EnableCORS {
		return
	}
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       int((12 * time.Hour).Seconds()),
	}))
}
