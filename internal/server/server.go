package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	_ "github.com/BodiAli/blog-api/docs" // swagger docs
	"github.com/BodiAli/blog-api/internal/bootstrap"
	"github.com/BodiAli/blog-api/internal/config"
	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/repository"
	"github.com/BodiAli/blog-api/internal/service"
	"github.com/BodiAli/blog-api/internal/storage"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	images         service.ImageStore
	identity       *middleware.IdentityResolver
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	likeRepo       repository.LikeRepository
	topicRepo      repository.TopicRepository
	authService    *service.AuthService
	userService    *service.UserService
	postService    *service.PostService
	commentService *service.CommentService
	likeService    *service.LikeService
}

// NewServer connects to the database and Redis and wires every dependency.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedIfEmpty: cfg.SeedDemoData})
	if err != nil {
		return nil, err
	}
	images := storage.NewLocalImageStore(cfg.ImageUploadDir, cfg.ImageBaseURL)

	return NewServerWithDeps(cfg, db, rdb, images)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageStore) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server needs a config and a database")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		images:         images,
		promMiddleware: middleware.InitMetrics("blog-api"),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		likeRepo:       repository.NewLikeRepository(db),
		topicRepo:      repository.NewTopicRepository(db),
	}
	s.identity = middleware.NewIdentityResolver(cfg.JWTSecret, cfg.TokenTTL(), s.userRepo, redisClient)

	pageSize := cfg.PostsPageSize
	s.authService = service.NewAuthService(s.userRepo, images, s.identity, s.maxImageBytes())
	s.userService = service.NewUserService(s.userRepo)
	s.postService = service.NewPostService(s.postRepo, s.commentRepo, images, pageSize, s.maxImageBytes())
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, pageSize)
	s.likeService = service.NewLikeService(s.likeRepo, s.postRepo, s.commentRepo)

	return s, nil
}

func (s *Server) maxImageBytes() int64 {
	return int64(s.config.ImageMaxUploadSizeMB) << 20
}

// App builds the fiber application once and returns it.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "Blog API",
		BodyLimit: int(s.maxImageBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			return respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the handlers so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if strings.HasPrefix(s.config.ImageBaseURL, "/") && s.config.ImageUploadDir != "" {
		app.Static(s.config.ImageBaseURL, s.config.ImageUploadDir, fiber.Static{MaxAge: 86400})
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	required := s.identity.Required()
	optional := s.identity.Optional()

	auth := api.Group("/auth")
	auth.Post("/sign-up", s.SignUp)
	auth.Post("/log-in", s.LogIn)
	auth.Get("/validate", required, s.ValidateToken)
	auth.Post("/log-out", required, s.LogOut)

	api.Get("/topics", s.GetTopics)

	// Specific /users routes before generic /:id
	users := api.Group("/users")
	users.Get("/posts", required, s.GetMyPosts)
	users.Get("/:id", s.GetUserProfile)

	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetPosts)
	posts.Post("/", required, s.CreatePost)

	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Patch("/:id/publish", required, s.SetPublished)
	posts.Patch("/:id/like", required, s.TogglePostLike)
	posts.Get("/:id/comments", optional, s.GetComments)
	posts.Post("/:id/comments", required, s.CreateComment)
	posts.Patch("/:id/comments/:commentId/like", required, s.ToggleCommentLike)
	posts.Put("/:id/comments/:commentId", required, s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", required, s.DeleteComment)

	posts.Get("/:id", optional, s.GetPost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The cache is optional, so
// a missing Redis is reported but does not fail readiness.
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

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
