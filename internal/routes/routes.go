package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/xyz-asif/citycare/internal/features/analysis"
	"github.com/xyz-asif/citycare/internal/features/auth"
	"github.com/xyz-asif/citycare/internal/features/health"
	"github.com/xyz-asif/citycare/internal/features/reports"
	"github.com/xyz-asif/citycare/internal/middleware"
	"github.com/xyz-asif/citycare/internal/pkg/ratelimit"
	"github.com/xyz-asif/citycare/internal/pkg/response"
)

// SubmitWindow is the window SUBMIT_RATE_LIMIT applies to.
const SubmitWindow = time.Minute

// Dependencies are the wired services the HTTP surface needs.
type Dependencies struct {
	Store          *reports.Store
	Reports        *reports.Service
	Analysis       *analysis.Service
	Prober         health.Prober
	AdminVerifiers []auth.Verifier
	SubmitLimiter  *ratelimit.RateLimiter
	UploadDir      string
	MaxImageBytes  int64
}

// SetupRoutes mounts every route on router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	if deps.UploadDir != "" {
		router.Static("/uploads", deps.UploadDir)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET(
		"/swagger/*any",
		ginSwagger.WrapHandler(
			swaggerFiles.Handler,
			ginSwagger.URL("/swagger/doc.json"),
			ginSwagger.DeepLinking(true),
			ginSwagger.DefaultModelsExpandDepth(-1),
			ginSwagger.DocExpansion("none"),
			ginSwagger.PersistAuthorization(true),
		),
	)

	admin := middleware.Admin(deps.AdminVerifiers...)

	submitLimit := func(c *gin.Context) { c.Next() }
	if deps.SubmitLimiter.Enabled() {
		submitLimit = ratelimit.Middleware(deps.SubmitLimiter)
	}

	api := router.Group("/api")

	health.RegisterRoutes(api, health.NewHandler(deps.Prober, deps.Store), admin)
	reports.RegisterRoutes(api, reports.NewHandler(deps.Store, deps.Reports, deps.MaxImageBytes), submitLimit, admin)
	analysis.RegisterRoutes(api, deps.Analysis, deps.MaxImageBytes)

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found", "ROUTE_NOT_FOUND")
	})
}
