package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cms0/docs/swagger"
	"cms0/internal/api"
	"cms0/internal/config"
	"cms0/internal/db"
	"cms0/internal/events"
	"cms0/internal/handlers"
	"cms0/internal/models"
	"cms0/internal/services"
	"cms0/internal/tasks"
	"cms0/internal/tasks/rate"
	"cms0/internal/utils/logger"

	"github.com/joho/godotenv"
)

// 🚀 Main function
// @title cms0 API
// @version 1.0
// @description Admin backend for the news, record, shop and pages modules
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey CSRFToken
// @in header
// @name X-CSRF-Token

func main() {
	logger := logger.New("cms0")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		logger.Info("No .env file found, skipping environment variable loading")
	} else {
		logger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sink, err := newSink(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to open audit log: %v", err)
	}
	defer sink.Sync()
	events.Audit(sink)

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	dbInstance := db.GetDB()

	storage, err := newStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	models.RegisterFileURLGenerator(storage)

	media := services.NewMediaLibrary(dbInstance, storage)
	catalog := services.NewCatalogService(dbInstance, media, cfg.Catalog.PageSize)
	plugins := services.NewPluginService(dbInstance)

	deps := api.Deps{
		Media:   media,
		Catalog: catalog,
		Plugins: plugins,
		Sink:    sink,
	}

	var (
		taskClient    *tasks.TaskClient
		taskServer    *tasks.Server
		taskScheduler *tasks.Scheduler
	)
	if cfg.Redis.Enabled {
		taskClient = tasks.NewTaskClient(cfg.Redis, cfg.Tasks.SweepBatch)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := taskClient.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("Redis unavailable, background sweep and login throttling disabled: %v", err)
			_ = taskClient.Close()
			taskClient = nil
		}
	}

	if taskClient != nil {
		media.SetSweepEnqueuer(taskClient)
		deps.Limiter = rate.NewSlidingWindowLimiter(taskClient.Redis(), rate.Config{
			Name: "login",
			RateLimit: rate.RateLimit{
				Window:      cfg.Auth.LoginWindow,
				MaxAttempts: cfg.Auth.LoginMaxAttempts,
			},
		})

		taskServer = tasks.NewServer(cfg.Redis, cfg.Tasks.Concurrency, tasks.NewTaskHandler(media), logger)
		if err := taskServer.Start(); err != nil {
			logger.Error("Task server error", err)
		}

		taskScheduler = tasks.NewScheduler(cfg.Redis, cfg.Tasks, logger)
		if err := taskScheduler.Start(); err != nil {
			logger.Error("Task scheduler error", err)
		}
	}

	// Initialize API server
	apiServer := api.NewServer(cfg, dbInstance, deps)

	// Swagger documentation
	swagger.SwaggerInfo.Title = "cms0 API Documentation"
	swagger.SwaggerInfo.Description = "Admin backend for the news, record, shop and pages modules"
	swagger.SwaggerInfo.Version = "1.0"
	swagger.SwaggerInfo.BasePath = "/api/v1"

	go func() {
		logger.Success("API server started")
		if err := apiServer.Start(); err != nil {
			logger.Error("API server stopped", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown API server", err)
	}

	if taskScheduler != nil {
		taskScheduler.Stop()
	}
	if taskServer != nil {
		taskServer.Shutdown()
	}
	if taskClient != nil {
		if err := taskClient.Close(); err != nil {
			logger.Error("Failed to close task client", err)
		}
	}

	logger.Info("Servers shutdown gracefully")
}

func newSink(cfg config.LogConfig) (*logger.Sink, error) {
	return logger.NewSink(cfg.Output, logger.Flags{
		Debug: cfg.Debug,
		Info:  cfg.Info,
		Warn:  cfg.Warn,
		Error: cfg.Error,
	})
}

// newStorage picks the media backend. r2 is S3 with a custom endpoint.
func newStorage(cfg *config.Config) (services.Storage, error) {
	if cfg.Storage.Provider == "s3" || cfg.Storage.Provider == "r2" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s3Storage, err := services.NewS3Storage(ctx,
			cfg.Storage.S3.BucketName,
			cfg.Storage.S3.Endpoint,
			cfg.Storage.S3.Region,
			cfg.Storage.S3.AccessKey,
			cfg.Storage.S3.SecretKey,
			false,
		)
		if err != nil {
			return nil, err
		}
		return s3Storage, nil
	}

	localStorage, err := services.NewLocalStorage(cfg.Storage.BasePath, cfg.Server.PublicURL)
	if err != nil {
		return nil, err
	}
	return localStorage, nil
}

var _ handlers.LoginLimiter = (*rate.SlidingWindowLimiter)(nil)
