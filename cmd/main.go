package main

import (
	"inspection-service/internal/handler"
	"inspection-service/internal/middleware"
	"inspection-service/pkg/cache"
	"inspection-service/pkg/config"
	"inspection-service/pkg/database"
	"inspection-service/pkg/jwtutil"
	"inspection-service/pkg/logger"
	"inspection-service/pkg/mailer"
	"inspection-service/prometheus"

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
	log.Info("Starting inspection service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize redis cache for room photo counts
	cache.Init(&cfg.Redis)
	log.Info("Cache client initialized", zap.String("addr", cfg.Redis.Addr))

	// Construct the mail client once and inject it where needed
	mail := mailer.New(&cfg.Mail, cfg.Server.BaseURL)
	if !mail.Configured() {
		log.Warn("Mail provider token not set, outbound email will fail")
	}

	// Handler-level settings (upload dir, cache TTL)
	handler.Init(cfg)
	authHandler := handler.NewAuthHandler(mail)
	reportHandler := handler.NewReportHandler(mail)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Uploaded files served statically
	e.Static(cfg.Upload.URLPrefix, cfg.Upload.Dir)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/verify", authHandler.VerifyEmail)
	auth.POST("/resend-code", authHandler.ResendCode)
	auth.POST("/login", authHandler.Login)
	auth.POST("/password-reset", authHandler.RequestPasswordReset)
	auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	// Public share routes - the share token is the credential, so reports
	// can be viewed and approved via link without an account
	public := e.Group("/public")
	public.GET("/reports/:token", reportHandler.GetPublicReport)
	public.GET("/reports/:token/photos", handler.PublicReportPhotos)
	public.POST("/reports/:token/approve", reportHandler.PublicApproveReport)
	public.POST("/reports/:token/reject", reportHandler.PublicRejectReport)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// User management
	users := api.Group("/users")
	users.GET("/profile", handler.GetProfile)
	users.PATCH("/profile", handler.UpdateProfile)
	users.POST("/change-password", handler.ChangePassword)
	users.POST("/change-email", authHandler.RequestEmailChange)
	users.POST("/change-email/confirm", authHandler.ConfirmEmailChange)

	// Property management
	properties := api.Group("/properties")
	properties.POST("", handler.CreateProperty)
	properties.GET("/mine", handler.GetMyProperty)
	properties.GET("/:id", handler.GetProperty)
	properties.PATCH("/:id", handler.UpdateProperty)
	properties.DELETE("/:id", handler.DeleteProperty)

	// Rooms nested under properties
	properties.PUT("/:id/rooms", handler.SaveRooms)
	properties.GET("/:id/rooms", handler.ListRooms)
	properties.DELETE("/:id/rooms/:roomId", handler.DeleteRoom)
	properties.GET("/:id/rooms/:roomId/photos", handler.ListRoomPhotos)
	properties.GET("/:id/photos", handler.ListPropertyPhotos)
	properties.GET("/:id/reports", reportHandler.ListReports)

	// Photos
	photos := api.Group("/photos")
	photos.POST("", handler.UploadPhoto)
	photos.PATCH("/:id/note", handler.UpdatePhotoNote)
	photos.POST("/:id/tags", handler.AddPhotoTag)
	photos.DELETE("/:id/tags/:tag", handler.RemovePhotoTag)
	photos.DELETE("/:id", handler.DeletePhoto)

	// Reports
	reports := api.Group("/reports")
	reports.POST("", reportHandler.CreateReport)
	reports.GET("/:id", reportHandler.GetReport)
	reports.PATCH("/:id", reportHandler.UpdateReport)
	reports.POST("/:id/archive", reportHandler.ArchiveReport)
	reports.DELETE("/:id", reportHandler.DeleteReport)
	reports.GET("/:id/photos", handler.ListReportPhotos)
	reports.POST("/:id/photos", handler.LinkPhotosToReport)
	reports.POST("/:id/approve", reportHandler.ApproveReport)
	reports.POST("/:id/reject", reportHandler.RejectReport)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
