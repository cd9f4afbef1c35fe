package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/store"
	"catalog-service/internal/uploader"
)

// @title Catalog Upload API
// @version 1.0.0
// @description Product catalog service with CSV bulk upload support

// @contact.name Catalog API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8087
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); cfg.LogLevel != "" && err == nil {
		logger.SetLevel(level)
	} else if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize stores. Products live in memory; upload jobs move to
	// Redis when it is configured so they survive restarts.
	productStore := store.NewMemoryStore()

	var jobStore store.JobStore = store.NewMemoryJobStore()
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: Failed to parse Redis URL: %v (job records stay in memory)", err)
		} else {
			client := redis.NewClient(redisOpts)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := client.Ping(ctx).Err(); err != nil {
				log.Printf("WARNING: Failed to connect to Redis: %v (job records stay in memory)", err)
			} else {
				redisClient = client
				jobStore = store.NewRedisJobStore(client, cfg.JobTTL)
				log.Println("✓ Redis connected successfully")
			}
			cancel()
		}
	}

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		var err error
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer eventsPublisher.Close()

	// Initialize the upload pipeline
	productUploader := uploader.New(productStore, cfg.UploadDelay, logger)

	// Initialize handlers (publisher may be nil if NATS not configured)
	validator := handlers.NewRequestValidator()
	uploadHandler := handlers.NewUploadHandler(productUploader, jobStore, eventsPublisher, validator, cfg.MaxUploadSize, logger)
	productsHandler := handlers.NewProductsHandler(productStore, validator, cfg.DefaultPageSize, cfg.MaxPageSize, logger)
	healthHandler := handlers.NewHealthHandler(productStore, redisClient, eventsPublisher)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Request ID + observability middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	// Add CORS middleware
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", healthHandler.ReadyCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		catalog := api.Group("/catalog")
		{
			// Upload pipeline
			catalog.POST("/upload", uploadHandler.UploadProducts)
			catalog.GET("/upload/status", uploadHandler.GetUploadState)
			catalog.GET("/upload/jobs/:jobId", uploadHandler.GetUploadJob)
			catalog.GET("/upload/template", uploadHandler.GetImportTemplate)

			// Catalog reads
			catalog.GET("/products", productsHandler.GetProducts)
			catalog.GET("/products/:id", productsHandler.GetProduct)
			catalog.GET("/stats", productsHandler.GetCatalogStats)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down catalog-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Catalog service stopped")
}
