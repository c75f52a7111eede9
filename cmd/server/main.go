package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modaliv/modaliv-backend/internal/config"
	"github.com/modaliv/modaliv-backend/internal/database"
	"github.com/modaliv/modaliv-backend/internal/database/repository"
	"github.com/modaliv/modaliv-backend/internal/router"
	"github.com/modaliv/modaliv-backend/internal/services"
	"github.com/modaliv/modaliv-backend/internal/services/auth"
	"github.com/modaliv/modaliv-backend/internal/services/notification"
	"github.com/modaliv/modaliv-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/modaliv/modaliv-backend/docs"
)

// @title Modaliv Backend API
// @version 1.0
// @description Identity, catalog and notification API with JWT authentication
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@modaliv.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT access token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Set Swagger base path dynamically
	docs.SwaggerInfo.BasePath = getEnv("BASE_PATH", "/")

	configureLogging()
	utils.InitSentry()

	cfg := config.Load()

	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	templateRepo := repository.NewNotificationTemplateRepository(db)

	tokenService := auth.NewTokenService(refreshTokenRepo, userRepo, cfg)
	jwtSigner := auth.NewJWTSigner(cfg)
	authService := auth.NewAuthService(userRepo, tokenService, jwtSigner)

	// Seed the notification catalog
	if err := notification.SeedTemplates(context.Background(), templateRepo); err != nil {
		logrus.Warnf("Failed to seed notification templates: %v", err)
	}

	// Create admin user if not exists
	if err := authService.EnsureAdminUser(context.Background()); err != nil {
		logrus.Warnf("Failed to create admin user: %v", err)
	} else {
		logrus.Info("Admin user check completed")
	}

	// Initialize RabbitMQ service
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ, notification dispatch disabled: %v", err)
		rabbitMQService = nil
	} else {
		defer rabbitMQService.Close()
	}

	// Start periodic refresh-token retention sweeps
	tokenCleanupService := auth.NewTokenCleanupService(tokenService)
	tokenCleanupService.Start()
	defer tokenCleanupService.Stop()

	r := router.SetupRouter(db, cfg, rabbitMQService)

	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
