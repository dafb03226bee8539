package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/server/handlers"
	"github.com/mamadbah2/newsletter/internal/server/middleware"
)

// Options carries the handlers and HTTP settings the engine is built from.
type Options struct {
	Reports        *handlers.ReportHandler
	Companies      *handlers.CompanyHandler
	Auth           *handlers.AuthHandler
	Authenticator  middleware.Authenticator
	AllowedOrigins []string
	AuthRateLimit  int
	MaxUploadBytes int64
}

// New wires the Gin engine with required routes and middlewares.
func New(opts Options, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", middleware.RateLimit(opts.AuthRateLimit), opts.Auth.Register)
	authRoutes.POST("/login", middleware.RateLimit(opts.AuthRateLimit), opts.Auth.Login)

	protected := api.Group("", middleware.Authenticate(opts.Authenticator, logger.Named("auth")))
	admin := middleware.RequireRole(models.RoleAdmin)

	protected.GET("/auth/me", opts.Auth.Me)

	reports := protected.Group("/reports")
	reports.POST("/upload", opts.Reports.Upload)
	reports.POST("/import-sheet", opts.Reports.ImportSheet)
	reports.GET("", opts.Reports.List)
	reports.GET("/:id", opts.Reports.Get)
	reports.PATCH("/:id", admin, opts.Reports.Patch)
	reports.DELETE("/:id", admin, opts.Reports.Delete)
	reports.POST("/:id/pdf", opts.Reports.ExportPDF)

	companies := protected.Group("/companies")
	companies.GET("", opts.Companies.List)
	companies.POST("", admin, opts.Companies.Create)
	companies.GET("/:id", opts.Companies.Get)
	companies.PATCH("/:id", admin, opts.Companies.Update)
	companies.PUT("/:id", admin, opts.Companies.Update)
	companies.DELETE("/:id", admin, opts.Companies.Delete)
	companies.PUT("/:id/template", opts.Companies.UpdateTemplate)

	logger.Info("router initialized")

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
