package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/handlers"
	"github.com/fotoatelier/backend/internal/middleware"
	"github.com/fotoatelier/backend/internal/models"
	"github.com/fotoatelier/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	s3Service, err := services.NewS3Service(cfg)
	if err != nil {
		log.Fatalf("Failed to init S3 service: %v", err)
	}
	storageService := services.NewStorageService(cfg)
	authService := services.NewAuthService(db, redisClient, cfg)
	emailService := services.NewEmailService(cfg)
	qrService := services.NewQRService(cfg)
	auditService := services.NewAuditService(db)
	imageService := services.NewImageService(db, cfg, s3Service)
	invitationService := services.NewInvitationService(db, cfg)
	likeService := services.NewLikeService(db)
	projectService := services.NewProjectService(db, imageService, invitationService)
	galleryService := services.NewGalleryService(db, invitationService, imageService, likeService)
	exportService := services.NewExportService(cfg)

	// Create admin user if not exists
	if err := authService.CreateDefaultAdmin(); err != nil {
		log.Printf("Failed to create default admin: %v", err)
	}

	// Optional: rebuild the local image mirror on start
	if cfg.MediaSyncOnStart {
		go func() {
			log.Println("MediaSyncOnStart enabled: syncing missing images...")
			keys, err := s3Service.ListKeys(context.Background(), "images/", 1000)
			if err != nil {
				log.Printf("Image sync list error: %v", err)
				return
			}
			for _, k := range keys {
				if _, found := storageService.LocalPath(k); found {
					continue
				}
				buf, derr := s3Service.Download(context.Background(), k)
				if derr != nil {
					continue
				}
				if _, _, _, err := storageService.SaveStream(context.Background(), k, bytes.NewReader(buf.Bytes())); err != nil {
					continue
				}
			}
			log.Println("MediaSyncOnStart: image sync complete")
		}()
	}

	// Periodic cleanup for expired refresh tokens
	go func() {
		for {
			if err := authService.CleanupExpiredTokens(); err != nil {
				log.Printf("Refresh token cleanup error: %v", err)
			}
			time.Sleep(1 * time.Hour)
		}
	}()

	// Daily expiry reminders for soon-expiring invitations. Redis SetNX
	// keeps it at one reminder per invitation.
	if cfg.SMTPHost != "" {
		go func() {
			for {
				expiring, err := invitationService.GetExpiringInvitations(72 * time.Hour)
				if err != nil {
					log.Printf("Expiry reminder query error: %v", err)
				}
				for _, inv := range expiring {
					if inv.ClientEmail == "" {
						continue
					}
					reminderKey := fmt.Sprintf("expiry_reminder:%s", inv.ID)
					sent, err := redisClient.SetNX(context.Background(), reminderKey, "1", 7*24*time.Hour).Result()
					if err != nil || !sent {
						continue
					}
					if err := emailService.SendExpiryReminder(&inv, invitationService.GalleryURL(inv.Token)); err != nil {
						log.Printf("WARN: expiry reminder for invitation %s failed: %v", inv.ID, err)
					}
				}
				time.Sleep(24 * time.Hour)
			}
		}()
	}

	// Periodic cleanup for stale anonymous gallery sessions
	if cfg.SessionCleanupEnabled {
		go func() {
			for {
				deleted, err := galleryService.CleanupStaleSessions(cfg.SessionMaxAge)
				if err != nil {
					log.Printf("Session cleanup error: %v", err)
				} else if deleted > 0 {
					log.Printf("Session cleanup: removed %d stale sessions", deleted)
				}
				time.Sleep(6 * time.Hour)
			}
		}()
	}

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(projectService, invitationService, imageService, qrService, emailService, auditService)
	mediaHandler := handlers.NewMediaHandler(imageService, auditService, storageService, s3Service, cfg)
	galleryHandler := handlers.NewGalleryHandler(galleryService, invitationService, imageService, likeService, exportService)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Setup routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.Auth(authService), authHandler.Logout)
			auth.POST("/gallery-session", authHandler.CreateGallerySession)
		}

		// Admin routes (protected)
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(authService))
		admin.Use(middleware.AdminOnly())
		admin.Use(middleware.UploadRateLimit(redisClient, cfg))

		// Destructive routes are tagged so the limiter can count them per
		// admin and action
		destructiveLimit := middleware.AdminActionRateLimit(auditService, redisClient, cfg.AdminRateLimitActions, cfg.AdminRateLimitWindowMinutes)
		{
			// Projects
			admin.POST("/projects", adminHandler.CreateProject)
			admin.GET("/projects", adminHandler.GetProjects)
			admin.GET("/projects/:id", adminHandler.GetProject)
			admin.PUT("/projects/:id", adminHandler.UpdateProject)
			admin.DELETE("/projects/:id", middleware.AuditAction("delete_project"), destructiveLimit, adminHandler.DeleteProject)

			// Images
			admin.POST("/images", mediaHandler.UploadImage)
			admin.POST("/images/batch", mediaHandler.UploadImages)
			admin.GET("/images", mediaHandler.GetImages)
			admin.GET("/images/:id", mediaHandler.GetImage)
			admin.GET("/images/:id/file", mediaHandler.GetImageFile)
			admin.GET("/images/:id/presign", mediaHandler.PresignImageURL)
			admin.PUT("/images/:id", mediaHandler.UpdateImage)
			admin.DELETE("/images", middleware.AuditAction("delete_image"), destructiveLimit, mediaHandler.BatchDeleteImages)
			admin.DELETE("/images/:id", middleware.AuditAction("delete_image"), destructiveLimit, mediaHandler.DeleteImage)

			// Invitations
			admin.POST("/invitations", adminHandler.CreateInvitation)
			admin.GET("/invitations", adminHandler.GetInvitations)
			admin.GET("/invitations/stats", adminHandler.GetInvitationStats)
			admin.GET("/invitations/:id", adminHandler.GetInvitation)
			admin.PUT("/invitations/:id", adminHandler.UpdateInvitation)
			admin.DELETE("/invitations/:id", middleware.AuditAction("delete_invitation"), destructiveLimit, adminHandler.DeleteInvitation)
			admin.POST("/invitations/:id/revoke", middleware.AuditAction("revoke_invitation"), destructiveLimit, adminHandler.RevokeInvitation)
			admin.POST("/invitations/:id/reactivate", adminHandler.ReactivateInvitation)
			admin.GET("/invitations/:id/qr-pdf", adminHandler.GetInvitationQRPDF)
			admin.POST("/invitations/:id/send", adminHandler.SendInvitationEmail)

			// Dashboard
			admin.GET("/stats", adminHandler.GetDashboardStats)
			admin.GET("/audit", adminHandler.GetAuditLog)
		}

		// Public gallery routes (anonymous visitor token)
		gallery := api.Group("/gallery")
		gallery.Use(middleware.GalleryAuth(authService))
		{
			gallery.GET("/:token", galleryHandler.GetGallery)
			gallery.GET("/:token/likes", galleryHandler.GetLikes)
			gallery.POST("/:token/images/:imageId/like", galleryHandler.ToggleLike)
			gallery.GET("/:token/images/:imageId/download", galleryHandler.DownloadImage)
			gallery.POST("/:token/export", galleryHandler.ExportFavorites)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // large batch uploads
		WriteTimeout: 300 * time.Second, // zip exports can be big
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
