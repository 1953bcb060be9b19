package server

import (
	"context"
	"log"
	"strings"
	"time"

	"anoa.com/facultydir/internal/config"
	"anoa.com/facultydir/internal/mailer"
	"anoa.com/facultydir/internal/middleware"
	"anoa.com/facultydir/pkg/storage"

	adminHttp "anoa.com/facultydir/internal/modules/admin/delivery/http"
	adminService "anoa.com/facultydir/internal/modules/admin/service"

	notiHttp "anoa.com/facultydir/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/facultydir/internal/modules/notification/repository"
	notifService "anoa.com/facultydir/internal/modules/notification/service"

	profileHttp "anoa.com/facultydir/internal/modules/profile/delivery/http"
	profileRepo "anoa.com/facultydir/internal/modules/profile/repository"
	profileService "anoa.com/facultydir/internal/modules/profile/service"

	searchService "anoa.com/facultydir/internal/modules/search/service"

	userHttp "anoa.com/facultydir/internal/modules/user/delivery/http"
	userRepo "anoa.com/facultydir/internal/modules/user/repository"
	userService "anoa.com/facultydir/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)
	profiles := profileRepo.NewProfileRepository(db)

	fileStorage, err := storage.NewDiskStorage(cfg.UploadDir)
	if err != nil {
		log.Fatalf("failed to initialize file storage: %v", err)
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)

	// Mailer is optional: without an API key delivery is skipped and logged.
	var sender *mailer.Sender
	if cfg.SendGridAPIKey != "" {
		sender = mailer.NewSender(mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom))
	} else {
		log.Println("SENDGRID_API_KEY not set, email delivery disabled")
		sender = mailer.NewSender(nil)
	}

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, users, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	authSvc := userService.NewAuthService(users, sender, searchSvc, redisClient)
	authHandler := userHttp.NewAuthHandler(authSvc)

	profileSvc := profileService.NewProfileService(profiles, users, fileStorage, sender, notificationSvc, searchSvc)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	adminSvc := adminService.NewAdminService(users, profiles, fileStorage, searchSvc)
	adminHandler := adminHttp.NewAdminHandler(adminSvc, profileSvc)

	// Background reconciliation: orphaned files every 12 hours, expired
	// email tokens every hour.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			log.Println("🧹 Running orphan file cleanup...")
			if err := profileSvc.CleanupOrphanFiles(context.Background()); err != nil {
				log.Printf("❌ Error cleaning up orphan files: %v", err)
			} else {
				log.Println("✅ Orphan file cleanup completed.")
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := authSvc.CleanupExpiredTokens(context.Background()); err != nil {
				log.Printf("❌ Error cleaning up expired tokens: %v", err)
			}
		}
	}()

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.Static(strings.TrimSuffix(storage.PathPrefix, "/"), cfg.UploadDir)

	authMiddleware := middleware.NewAuthMiddleware(users)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/resend-verification", authHandler.ResendVerification)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// The directory itself is public.
	api.GET("/profiles", profileHandler.ListProfiles)
	api.GET("/profiles/:id", profileHandler.GetProfile)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)

		// Profile mutations
		protected.PUT("/profiles/:id", profileHandler.UpdateProfile)
		protected.DELETE("/profiles/:id", profileHandler.DeleteProfile)
		protected.DELETE("/profiles/:id/files/:slot", profileHandler.RemoveProfileFile)
		protected.POST("/profiles/:id/request-edit", profileHandler.RequestEdit)

		// Manager-only profile controls
		managerGroup := protected.Group("")
		managerGroup.Use(authMiddleware.RequireManager())
		{
			managerGroup.PUT("/profiles/:id/lock", profileHandler.LockProfile)
			managerGroup.PUT("/profiles/lock-all", profileHandler.LockAllProfiles)
			managerGroup.POST("/profiles/:id/approve-edit", profileHandler.ApproveEdit)
		}

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireManager())
		{
			adminGroup.POST("/profiles", profileHandler.CreateProfile)
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.GET("/stats", adminHandler.GetStats)
			adminGroup.POST("/maintenance/reconcile-files", adminHandler.ReconcileFiles)
		}

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
