package main

import (
	"jewelry-service/internal/handler"
	"jewelry-service/internal/middleware"
	"jewelry-service/internal/provision"
	"jewelry-service/pkg/config"
	"jewelry-service/pkg/database"
	"jewelry-service/pkg/jwtutil"
	"jewelry-service/pkg/logger"
	"jewelry-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting jewelry order service...", zap.String("environment", cfg.Server.Env))

	// The registry is process-scoped and handed to every handler; tenant
	// connections are added lazily as requests arrive.
	registry := database.NewRegistry(&cfg.DB, log)

	// Connect the admin database eagerly to fail fast on a bad host.
	admin, err := registry.Admin()
	if err != nil {
		log.Fatal("Failed to connect to admin database", zap.Error(err))
	}
	if err := database.EnsureAdminSchema(admin); err != nil {
		log.Fatal("Failed to migrate admin database", zap.Error(err))
	}
	log.Info("Admin database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	provisioner := provision.NewService(registry, log)

	// Initialize Echo framework
	e := echo.New()
	e.Validator = handler.NewValidator()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	authHandler := handler.NewAuthHandler(registry)
	clientHandler := handler.NewClientHandler(registry, provisioner)
	orderHandler := handler.NewOrderHandler(registry)

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.Metrics)

	// Login and bootstrap routes
	e.POST("/api/admin/login", authHandler.AdminLogin)
	e.POST("/api/admin/seed", authHandler.Seed)
	e.POST("/api/auth/login", authHandler.ClientLogin)

	// Admin routes - client business management
	adminAPI := e.Group("/api/admin", middleware.RequireAdmin)
	adminAPI.GET("/clients", clientHandler.List)
	adminAPI.POST("/clients", clientHandler.Create)
	adminAPI.GET("/clients/:id", clientHandler.Get)
	adminAPI.PUT("/clients/:id", clientHandler.Update)
	adminAPI.DELETE("/clients/:id", clientHandler.Delete)
	adminAPI.POST("/reset-password", clientHandler.ResetPassword)

	// Client routes - order management inside the tenant's own database
	orders := e.Group("/api/orders", middleware.RequireClient)
	orders.GET("", orderHandler.List)
	orders.POST("", orderHandler.Create)
	orders.GET("/:id", orderHandler.Get)
	orders.PUT("/:id", orderHandler.Update)
	orders.DELETE("/:id", orderHandler.Delete)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
