package router

import (
	"time"

	"github.com/modaliv/modaliv-backend/internal/config"
	"github.com/modaliv/modaliv-backend/internal/database/repository"
	"github.com/modaliv/modaliv-backend/internal/handlers"
	"github.com/modaliv/modaliv-backend/internal/middleware"
	"github.com/modaliv/modaliv-backend/internal/services"
	"github.com/modaliv/modaliv-backend/internal/services/auth"
	"github.com/modaliv/modaliv-backend/internal/services/excel"
	"github.com/modaliv/modaliv-backend/internal/services/notification"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin router with all API routes
func SetupRouter(db *gorm.DB, cfg *config.Config, rabbitMQService *services.RabbitMQService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	templateRepo := repository.NewNotificationTemplateRepository(db)

	// Services
	tokenService := auth.NewTokenService(refreshTokenRepo, userRepo, cfg)
	jwtSigner := auth.NewJWTSigner(cfg)
	authService := auth.NewAuthService(userRepo, tokenService, jwtSigner)
	productService := services.NewProductService(productRepo)
	excelService := excel.NewExcelService()

	var publisher notification.Publisher
	if rabbitMQService != nil {
		publisher = rabbitMQService
	}
	notificationService := notification.NewNotificationService(templateRepo, publisher, services.NotificationQueue)

	// Middleware and handlers
	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(authService, tokenService)
	productHandler := handlers.NewProductHandler(productService, excelService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// API v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Auth routes (public)
		authPublic := api.Group("/auth")
		{
			authPublic.POST("/register", authHandler.Register)
			authPublic.POST("/login", authHandler.Login)
			authPublic.POST("/refresh", authHandler.RefreshToken)
		}

		// Product routes (public read)
		products := api.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:sku", productHandler.GetProduct)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.RequireAuth())
		{
			authProtected := protected.Group("/auth")
			{
				authProtected.POST("/logout", authHandler.Logout)
				authProtected.DELETE("/sessions", authHandler.RevokeOtherSessions)
				authProtected.GET("/profile", authHandler.GetProfile)
				authProtected.POST("/change-password", authHandler.ChangePassword)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("/templates", notificationHandler.ListTemplates)
				notifications.POST("/send", notificationHandler.SendNotification)
			}

			protected.GET("/products/export", productHandler.ExportProducts)

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(bearerTokenMiddleware.RequireAdmin())
			{
				admin.POST("/products", productHandler.CreateProduct)
				admin.GET("/users", adminHandler.ListUsers)
				admin.PUT("/users/:id/status", adminHandler.SetUserActive)
				admin.POST("/users/:id/reset-password", adminHandler.ResetPassword)
				admin.DELETE("/users/:id/sessions", adminHandler.RevokeUserSessions)
				admin.POST("/tokens/cleanup", adminHandler.CleanupTokens)
			}
		}
	}

	return r
}
