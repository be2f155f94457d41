// @title CityCare API
// @version 1.0
// @description Civic issue reporting backend with MongoDB storage and an in-process fallback
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer <token>"
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	docs "github.com/xyz-asif/citycare/docs"
	"github.com/xyz-asif/citycare/internal/config"
	"github.com/xyz-asif/citycare/internal/features/analysis"
	"github.com/xyz-asif/citycare/internal/features/auth"
	"github.com/xyz-asif/citycare/internal/features/reports"
	"github.com/xyz-asif/citycare/internal/middleware"
	"github.com/xyz-asif/citycare/internal/pkg/cloudinary"
	"github.com/xyz-asif/citycare/internal/pkg/database"
	"github.com/xyz-asif/citycare/internal/pkg/events"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
	"github.com/xyz-asif/citycare/internal/pkg/metrics"
	"github.com/xyz-asif/citycare/internal/pkg/ratelimit"
	"github.com/xyz-asif/citycare/internal/pkg/storage"
	"github.com/xyz-asif/citycare/internal/routes"
)

func main() {
	cfg := config.Load()

	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		logger.SetDefault(logger.NewWithWriter(level, os.Stdout))
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger.SetGlobalLevel(level)
	}

	metrics.Register()

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port
	docs.SwaggerInfo.BasePath = "/api"

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	conn, err := database.NewConnection(&database.Config{
		URI:     cfg.MongoURI,
		DBName:  cfg.MongoDB,
		Timeout: 5 * time.Second,
		MaxPool: 100,
	})
	if err != nil {
		logger.Fatal("Failed to configure MongoDB: %v", err)
	}

	repo := reports.NewMongoRepository(conn.Database)
	conn.OnChange(func(reachable bool) {
		metrics.SetStoreOnline(reachable)
		if reachable {
			go prepareCollection(ctx, repo)
		}
	})
	if !conn.Probe(ctx) {
		logger.Warn("Starting without MongoDB; reports will be kept in memory until it is reachable")
	}
	go conn.Watch(ctx, cfg.MongoProbeInterval)

	images, err := newImageStore(cfg)
	if err != nil {
		logger.Fatal("Failed to configure image storage: %v", err)
	}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	store := reports.NewStore(repo, conn, images, publisher)

	var detector analysis.Detector
	if cfg.InferenceAPIKey != "" {
		detector = analysis.NewInferenceClient(cfg.InferenceAPIURL, cfg.InferenceAPIKey)
	} else {
		logger.Warn("INFERENCE_API_KEY not set; photo analysis will use mock detections")
	}
	analysisService := analysis.NewService(detector, nil)
	reportService := reports.NewService(store, images, analysisService.Classifier())

	var limiter *ratelimit.RateLimiter
	if cfg.SubmitRateLimit > 0 {
		limiter = ratelimit.New(cfg.SubmitRateLimit, routes.SubmitWindow)
		limiter.StartCleanup(ctx, routes.SubmitWindow)
	} else {
		logger.Warn("SUBMIT_RATE_LIMIT is %d; submissions are not rate limited", cfg.SubmitRateLimit)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.FrontendURL))

	uploadDir := ""
	if images.Name() == "disk" {
		uploadDir = cfg.UploadDir
	}

	routes.SetupRoutes(router, routes.Dependencies{
		Store:          store,
		Reports:        reportService,
		Analysis:       analysisService,
		Prober:         conn,
		AdminVerifiers: newVerifiers(ctx, cfg),
		SubmitLimiter:  limiter,
		UploadDir:      uploadDir,
		MaxImageBytes:  cfg.MaxUploadMB << 20,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting on port %s (mode=%s, images=%s)", cfg.Port, store.Mode(), images.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	store.Wait()
	if n := store.Local().Len(); n > 0 {
		logger.Warn("%d report(s) held in memory were never synced and are lost", n)
	}
	if err := conn.Close(); err != nil {
		logger.Warn("MongoDB disconnect: %v", err)
	}

	logger.Info("Server exited")
}

func prepareCollection(ctx context.Context, repo *reports.MongoRepository) {
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure report indexes: %v", err)
	}
	migrated, err := repo.MigrateLegacyCoordinates(ctx)
	if err != nil {
		logger.Warn("Legacy coordinate migration failed: %v", err)
		return
	}
	if migrated > 0 {
		logger.Info("Migrated %d report(s) to nested coordinates", migrated)
	}
}

func newImageStore(cfg *config.Config) (storage.ImageStore, error) {
	if cfg.CloudinaryEnabled() {
		return cloudinary.NewService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryUploadFolder)
	}
	return storage.NewDiskStore(cfg.UploadDir, "/uploads")
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.RabbitMQURL == "" {
		return events.Noop{}
	}
	publisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, report events disabled: %v", err)
		return events.Noop{}
	}
	return publisher
}

func newVerifiers(ctx context.Context, cfg *config.Config) []auth.Verifier {
	var verifiers []auth.Verifier
	if cfg.AdminJWTSecret != "" {
		verifiers = append(verifiers, auth.NewJWTVerifier(cfg.AdminJWTSecret))
	}
	if cfg.FirebaseServiceAccountPath != "" {
		client, err := auth.InitFirebase(ctx, cfg.FirebaseServiceAccountPath)
		if err != nil {
			logger.Fatal("Failed to initialize Firebase: %v", err)
		}
		verifiers = append(verifiers, auth.NewFirebaseVerifier(client))
	}
	if len(verifiers) == 0 {
		logger.Warn("No admin credentials configured; status updates, deletes and sync are open")
	}
	return verifiers
}
