// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	_ "netsocial/docs" // swagger docs
	"netsocial/internal/auth"
	"netsocial/internal/cache"
	"netsocial/internal/config"
	"netsocial/internal/database"
	"netsocial/internal/imagehost"
	"netsocial/internal/middleware"
	"netsocial/internal/models"
	"netsocial/internal/notifications"
	"netsocial/internal/repository"
	"netsocial/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// sessionTTL is the lifetime of a login session and its cookie.
const sessionTTL = time.Hour

// newImageStore builds the post image host client. Tests replace it with a fake.
var newImageStore = func(cfg *config.Config) service.ImageStore {
	return imagehost.New(cfg.ImageHostURL, cfg.ImageHostAPIKey)
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	authService    *service.AuthService
	userService    *service.UserService
	postService    *service.PostService
	commentService *service.CommentService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional: without it there is no cache, revocation or fan-out.
	redisClient, err := cache.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("continuing without Redis", "error", err)
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
// A nil redisClient disables caching, token revocation and cross-instance fan-out.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	// Repositories read the cache client through the cache package.
	cache.SetClient(redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("netsocial-api"),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}

	server.authService = service.NewAuthService(server.userRepo, tokens)
	server.userService = service.NewUserService(server.userRepo, cfg.IsAdmin, cfg.MaxProfileImageMB*1024*1024)
	server.postService = service.NewPostService(server.postRepo, newImageStore(cfg), server.userService.IsAdmin, cfg.IDMaxAttempts)
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo, server.userRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Server span per request; must run before ContextMiddleware so the trace id is set
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,https://netsocial.app,https://beta.netsocial.app"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Index)

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// AuthRequired is attached per route: a group-level Use would also guard
	// the public routes registered after it.
	authRequired := s.AuthRequired()

	// Auth routes
	api.Post("/signup", s.Signup)
	api.Post("/login", s.Login)
	api.Post("/logout", s.Logout)

	// User routes
	api.Get("/user", authRequired, s.GetCurrentUser)
	api.Get("/user/:userid", s.GetUserProfile)

	// Post routes. Specific /:id/:resource routes go BEFORE the generic /:id route.
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", authRequired, s.CreatePost)
	posts.Get("/user/:userId", authRequired, s.GetUserPosts)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", authRequired, s.CreateComment)
	posts.Post("/:id/comments/:commentId/replies", authRequired, s.CreateReply)
	posts.Post("/:id/heart", authRequired, s.ToggleHeart)
	posts.Get("/:id/image", s.GetPostImage)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	// Profile routes
	profile := api.Group("/profile")
	profile.Get("/settings", authRequired, s.GetProfileSettings)
	profile.Post("/settings", authRequired, s.UpdateProfileSettings)
	profile.Get("/:userid/image", s.GetProfileImage)
	profile.Get("/:userid/banner", s.GetProfileBanner)

	// Live feed
	api.Get("/ws/feed", authRequired, requireWebSocketUpgrade, s.FeedWebsocketHandler())

	app.Use(s.NotFound)
}

// Index handles GET /
// @Summary Site index
// @Tags meta
// @Produce json
// @Success 200 {object} object{main_site=string,port=string}
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"main_site": "netsocial.app",
		"port":      s.config.Port,
	})
}

// NotFound answers every unmatched route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not Found"})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only an unreachable database makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// ErrorHandler turns anything a handler returns unanswered into a JSON error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// StartRealtime relays feed events published on Redis to local WebSocket
// clients until Shutdown. Without Redis events are delivered in-process.
func (s *Server) StartRealtime() error {
	if !s.notifier.Enabled() {
		return nil
	}
	return s.hub.StartWiring(s.shutdownCtx, s.notifier)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the Redis subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Close WebSocket connections gracefully
	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down feed hub: %v", err)
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
