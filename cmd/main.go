package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"campus-approvals/internal/auth"
	"campus-approvals/internal/config"
	"campus-approvals/internal/events"
	"campus-approvals/internal/handlers"
	"campus-approvals/internal/latex"
	"campus-approvals/internal/middleware"
	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
	"campus-approvals/internal/seeders"
	"campus-approvals/internal/services"
)

// @title Campus Approvals API
// @version 1.0.0
// @description Campus form submission and sequential approval service

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()
	if cfg.SecretKey == "" {
		logger.Fatal("SECRET_KEY is required")
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.AutoMigrate(
		&models.User{},
		&models.Signature{},
		&models.FormTemplate{},
		&models.ApprovalRoute{},
		&models.Request{},
		&models.ApprovalStep{},
		&models.RequestAuditLog{},
	); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	// Seed built-in form templates and the bootstrap admin
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := seeders.SeedFormTemplates(seedCtx, templateRepo); err != nil {
		logger.Fatalf("Failed to seed form templates: %v", err)
	}
	if err := seeders.EnsureAdmin(seedCtx, userRepo, cfg.AdminEmail); err != nil {
		logger.Warnf("Failed to ensure admin user: %v", err)
	}
	seedCancel()

	// Initialize event publisher (optional - service works without NATS)
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Warnf("Failed to initialize event publisher: %v. Events will not be published.", err)
			publisher = nil
		} else {
			logger.Info("Event publisher initialized")
		}
	} else {
		logger.Info("NATS_URL not configured, event publishing disabled")
	}

	// Initialize session store (optional - sessions work without Redis,
	// but revocation then takes effect only at token expiry)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warnf("Invalid REDIS_URL: %v. Session revocation disabled.", err)
		} else {
			redisClient = redis.NewClient(opts)
			logger.Info("Redis session store initialized")
		}
	} else {
		logger.Info("REDIS_URL not configured, session revocation disabled")
	}
	sessionStore := auth.NewSessionStore(redisClient)

	// Initialize auth components
	tokens := auth.NewTokenManager(cfg.SecretKey)
	oauthProvider := auth.NewOAuthProvider(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthTenantID, cfg.OAuthRedirectURL)

	// Initialize services
	renderer := latex.NewMakeRenderer(cfg.LatexDir)
	identityService := services.NewIdentityService(userRepo)
	signatureService := services.NewSignatureService(userRepo, cfg.UploadDir)
	submissionService := services.NewSubmissionService(requestRepo, templateRepo, publisher)
	approvalService := services.NewApprovalService(requestRepo, userRepo, renderer, publisher, cfg.UploadDir)
	adminService := services.NewAdminService(userRepo, templateRepo, sessionStore)

	// Initialize handlers
	secureCookies := cfg.Environment == "production"
	authHandler := handlers.NewAuthHandler(oauthProvider, tokens, sessionStore, identityService, secureCookies, cfg.FrontendURL)
	signatureHandler := handlers.NewSignatureHandler(signatureService)
	requestHandler := handlers.NewRequestHandler(submissionService, signatureService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORS(cfg.FrontendURL))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)

	requireAuth := middleware.RequireAuth(tokens, sessionStore, identityService)

	// Authentication endpoints
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/login", authHandler.Login)
		authGroup.GET("/callback", authHandler.Callback)
		authGroup.GET("/profile", requireAuth, authHandler.Profile)
		authGroup.POST("/logout", requireAuth, authHandler.Logout)
	}

	// Requester and approver endpoints
	approvals := router.Group("/approvals", requireAuth)
	{
		approvals.GET("/signature", signatureHandler.Get)
		approvals.POST("/signature", signatureHandler.Upload)
		approvals.GET("/uploads/signatures/:filename", signatureHandler.Serve)

		approvals.GET("/forms", requestHandler.ListForms)
		approvals.GET("/forms/:form_code", requestHandler.GetForm)
		approvals.GET("/new", requestHandler.New)
		approvals.POST("/submit/:form_code", requestHandler.Submit)
		approvals.GET("/my_requests", requestHandler.ListMine)
		approvals.GET("/request/:id", requestHandler.Get)
		approvals.GET("/request/:id/edit", requestHandler.GetForEdit)
		approvals.POST("/request/:id/edit", requestHandler.Edit)
		approvals.POST("/request/:id/resubmit", requestHandler.Resubmit)

		approvals.GET("/pending", approvalHandler.ListPending)
		approvals.POST("/request/:id/decide", approvalHandler.Decide)
		approvals.GET("/request/:id/history", approvalHandler.History)
	}

	// Admin endpoints
	admin := router.Group("/admin", requireAuth, middleware.RequireAdmin())
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.PATCH("/users/:id", adminHandler.UpdateUser)
		admin.GET("/routes/:form_code", adminHandler.GetRoutes)
		admin.PUT("/routes/:form_code", adminHandler.SetRoutes)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("Campus approvals service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	logger.Info("Shutting down server...")

	if publisher != nil {
		publisher.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("Server shutdown complete")
}
