package router

import (
	"fmt"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/skillforge-io/backend/internal/cache"
	"github.com/skillforge-io/backend/internal/handlers"
	"github.com/skillforge-io/backend/internal/logger"
	"github.com/skillforge-io/backend/internal/middleware"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/realtime"
	"github.com/skillforge-io/backend/internal/repositories"
	"github.com/skillforge-io/backend/pkg/config"
	"github.com/skillforge-io/backend/pkg/firebase"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	logger.Info("Global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies.
// It returns the realtime hub so the caller can drain connections on
// shutdown.
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, redisCache *cache.RedisCache, fcm *firebase.App) (*realtime.Hub, error) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectLike{},
		&models.ProjectComment{},
		&models.ForumPost{},
		&models.ForumReply{},
		&models.Track{},
		&models.Enrollment{},
		&models.Notification{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto migration failed: %w", err)
	}
	logger.Info("PostgreSQL auto-migrations completed for all models")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	projectRepo := repositories.NewPostgresProjectRepository(pgdb)
	likeRepo := repositories.NewPostgresProjectLikeRepository(pgdb)
	commentRepo := repositories.NewPostgresProjectCommentRepository(pgdb)
	forumRepo := repositories.NewPostgresForumRepository(pgdb)
	courseRepo := repositories.NewHybridCourseRepository(pgdb, mgClient.Database("skillforge"))
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	// --- Realtime layer ---
	gate := realtime.NewGate(userRepo, cfg.JWTSecret)
	registry := realtime.NewRegistry()
	interactions := realtime.NewInteractionService(projectRepo, likeRepo, commentRepo, forumRepo, userRepo, notificationRepo, registry, fcm)
	hub := realtime.NewHub(gate, registry, interactions, redisCache, cfg.WSReadTimeout)
	e.GET("/ws", hub.ServeWS)
	logger.Info("WebSocket endpoint configured")

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	authHandler.RegisterAuthRoutes(authGroup)
	logger.Info("Auth routes configured")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	authHandler.RegisterProtectedRoutes(api)
	logger.Info("JWT authentication middleware applied to /api/v1 group")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo, projectRepo, courseRepo)
	userHandler.RegisterUserRoutes(api)
	logger.Info("User routes configured")

	// Project, like and comment routes
	projectHandler := handlers.NewProjectHandler(projectRepo, likeRepo, commentRepo, userRepo, notificationRepo, redisCache)
	projectHandler.RegisterProjectRoutes(api)
	logger.Info("Project routes configured")

	// Forum routes
	forumHandler := handlers.NewForumHandler(forumRepo, userRepo, notificationRepo)
	forumHandler.RegisterForumRoutes(api)
	logger.Info("Forum routes configured")

	// Learning track routes
	courseHandler := handlers.NewCourseHandler(courseRepo, userRepo)
	courseHandler.RegisterCourseRoutes(api)
	logger.Info("Course routes configured")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	logger.Info("Notification routes configured")

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
	adminHandler := handlers.NewAdminHandler(userRepo, projectRepo, forumRepo, courseRepo)
	adminHandler.RegisterAdminRoutes(adminGroup)
	logger.Info("Admin routes configured")

	logger.Info("All routes configured")
	return hub, nil
}
