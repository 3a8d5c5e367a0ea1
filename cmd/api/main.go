package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/config"
	"github.com/prefeitura-rio/app-social/internal/handlers"
	"github.com/prefeitura-rio/app-social/internal/logging"
	"github.com/prefeitura-rio/app-social/internal/middleware"
	"github.com/prefeitura-rio/app-social/internal/observability"
	"github.com/prefeitura-rio/app-social/internal/services"
)

// @title           Social Assistance Application API
// @version         1.0
// @description     API for the multi-step government-assistance application form: draft persistence, step validation, remote saves and AI text suggestions for the free-text situation fields.

// @host      localhost:8080
// @BasePath  /v1

// @tag.name application
// @tag.description Operations on the application form

// @tag.name suggestions
// @tag.description AI suggestion operations

// @tag.name health
// @tag.description Health check operations

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	config.InitMongoDB()
	config.InitRedis()

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Wire services
	repo := services.NewMongoApplicationRepository(
		config.MongoDB.Collection(config.AppConfig.ApplicationCollection),
		logging.Logger.Named("application_repository"),
	)
	sessions := services.NewSessionManager(
		config.Redis,
		repo,
		config.AppConfig.DraftTTL,
		logging.Logger.Named("form_controller"),
	)
	suggestions := services.NewSuggestionService(services.SuggestionConfig{
		APIKey:  config.AppConfig.OpenAIAPIKey,
		Model:   config.AppConfig.OpenAIModel,
		BaseURL: config.AppConfig.OpenAIBaseURL,
	}, logging.Logger.Named("suggestion_service"))

	applicationHandler := handlers.NewApplicationHandler(sessions, repo, logging.Logger.Named("application_handler"))
	suggestionHandler := handlers.NewSuggestionHandler(suggestions, logging.Logger.Named("suggestion_handler"))

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		v1.GET("/application", applicationHandler.GetState)
		v1.PUT("/application/field", applicationHandler.EditField)
		v1.POST("/application/next", applicationHandler.NextStep)
		v1.POST("/application/previous", applicationHandler.PreviousStep)
		v1.POST("/application/save", applicationHandler.SaveProgress)
		v1.POST("/application/submit", applicationHandler.Submit)
		v1.POST("/application/acknowledge", applicationHandler.Acknowledge)
		v1.GET("/application/:id", applicationHandler.GetApplication)

		v1.POST("/suggestions", suggestionHandler.Generate)
	}

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("server exited gracefully")
}
