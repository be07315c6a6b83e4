package main

import (
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pmarstow/giftwish/pkg/giftwish/auth"
	"github.com/pmarstow/giftwish/pkg/giftwish/database"
	"github.com/pmarstow/giftwish/pkg/giftwish/groups"
	"github.com/pmarstow/giftwish/pkg/giftwish/logging"
	"github.com/pmarstow/giftwish/pkg/giftwish/metrics"
	"github.com/pmarstow/giftwish/pkg/giftwish/models"
	"github.com/pmarstow/giftwish/pkg/giftwish/notify"
	"github.com/pmarstow/giftwish/pkg/giftwish/wishlist"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Giftwish API
// @version 1.0
// @description A group gift-wishlist service: share wishlists with your group while keeping purchases a surprise.

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token. Format: "Bearer {token}"

func main() {
	logging.Setup()

	// Get database path from environment or use default
	dbPath := os.Getenv("GIFTWISH_DB_PATH")
	if dbPath == "" {
		dbPath = "giftwish.db"
	}

	// Connect to database
	if err := database.Connect(dbPath); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Set up the email transport. Without SMTP configuration notifications
	// are logged instead of sent, so local development needs no relay.
	var mailer notify.Mailer
	if cfg, ok := notify.SMTPConfigFromEnv(); ok {
		smtpMailer, err := notify.NewSMTPMailer(cfg)
		if err != nil {
			slog.Error("Failed to configure SMTP mailer", "error", err)
			os.Exit(1)
		}
		mailer = smtpMailer
		slog.Info("SMTP mailer configured", "host", cfg.Host, "port", cfg.Port)
	} else {
		mailer = &notify.LogMailer{}
		slog.Info("SMTP not configured - notifications will be logged only")
	}
	notifier := notify.NewDispatcher(mailer)

	// Set up Gin router
	r := gin.Default()
	r.Use(cors.Default())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", metrics.Handler())

	// Swagger documentation. The doc.json payload comes from the package
	// generated by `swag init`, which is not committed.
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "giftwish",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(database.GetDB())
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Groups routes (protected)
		groupsHandler := groups.NewHandler(database.GetDB(), notifier)
		groupsGroup := api.Group("/groups")
		groupsGroup.Use(auth.AuthMiddleware())
		groupsHandler.RegisterRoutes(groupsGroup)
		groupsHandler.RegisterMemberRoutes(groupsGroup)

		// Wishlist routes (protected)
		wishlistHandler := wishlist.NewHandler(database.GetDB(), notifier)
		wishlistHandler.RegisterGroupRoutes(groupsGroup)
		wishlistHandler.RegisterItemRoutes(api.Group("", auth.AuthMiddleware()))
	}

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("Starting giftwish server", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
