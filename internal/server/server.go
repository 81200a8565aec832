// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"gatherly/internal/cache"
	"gatherly/internal/config"
	"gatherly/internal/database"
	"gatherly/internal/middleware"
	"gatherly/internal/models"
	"gatherly/internal/notifications"
	"gatherly/internal/repository"
	"gatherly/internal/service"
	"gatherly/internal/transport"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
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
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo  repository.UserRepository
	notifRepo repository.NotificationRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub

	userService    *service.UserService
	friendService  *service.FriendService
	availService   *service.AvailabilityService
	hangoutService *service.HangoutService
	notifService   *service.NotificationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Used by tests and by bootstrap layers that establish DB/Redis themselves.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	availRepo := repository.NewAvailabilityRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	hangoutRepo := repository.NewHangoutRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	prom := middleware.InitMetrics("gatherly-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		notifRepo:      notifRepo,
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
	}

	var sms transport.SMSSender
	if twilio := transport.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, middleware.Logger); twilio != nil {
		sms = twilio
	} else {
		sms = transport.NewMockSMSSender(middleware.Logger)
	}
	var pusher transport.PushSender = transport.NewHTTPPusher(cfg.PushTimeout(), middleware.Logger)
	if cfg.Env == "development" || cfg.Env == "test" {
		pusher = transport.NewLogPusher(middleware.Logger)
	}

	dispatcher := service.NewDispatcher(deviceRepo, pusher, sms, server.notifier)
	server.friendService = service.NewFriendService(db, friendRepo, userRepo, dispatcher)
	server.userService = service.NewUserService(userRepo, deviceRepo, server.friendService)
	server.availService = service.NewAvailabilityService(db, userRepo, availRepo, friendRepo, notifRepo, dispatcher)
	server.hangoutService = service.NewHangoutService(db, hangoutRepo, friendRepo, userRepo, dispatcher)
	server.notifService = service.NewNotificationService(notifRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
		app.Use(s.promMiddleware.Middleware)
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting; preflight requests are never limited.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, "signup", 3, 10*time.Minute), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, "login", 10, 5*time.Minute), s.Login)

	// Invite-link RSVP is deliberately public: the token is the credential.
	api.Post("/invites/:token/respond", s.RespondByToken)

	protected := api.Group("", middleware.AuthRequired)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me/reminders", s.UpdateReminderSettings)
	users.Post("/me/contacts", s.ImportContacts)
	users.Get("/me/contacts", s.GetContacts)
	users.Delete("/me/contacts/:id", s.DeleteContact)
	users.Post("/me/devices", s.RegisterDevice)
	users.Delete("/me/devices", s.RemoveDevice)

	availability := protected.Group("/availability")
	availability.Post("/", s.SaveAvailability)
	availability.Get("/", s.GetMyAvailability)
	availability.Get("/friends", s.GetFriendAvailability)

	friends := protected.Group("/friends")
	friends.Get("/", s.GetFriends)
	friends.Post("/requests/:userId", middleware.RateLimit(s.redis, "friend_request", 5, 5*time.Minute), s.SendFriendRequest)
	friends.Get("/requests", s.GetPendingRequests)
	friends.Get("/requests/sent", s.GetSentRequests)
	friends.Post("/requests/:requestId/accept", s.AcceptFriendRequest)
	friends.Post("/requests/:requestId/reject", s.RejectFriendRequest)
	friends.Get("/watching", s.GetWatchList)
	friends.Post("/:userId/watch", s.WatchFriend)
	friends.Delete("/:userId/watch", s.UnwatchFriend)
	friends.Post("/:userId/nudge", middleware.RateLimit(s.redis, "nudge", 5, time.Hour), s.NudgeFriend)
	friends.Delete("/:userId", s.RemoveFriend)

	hangouts := protected.Group("/hangouts")
	hangouts.Post("/", s.CreateHangout)
	hangouts.Get("/", s.GetHangouts)
	hangouts.Post("/:id/respond", s.RespondToHangout)
	hangouts.Post("/:id/cancel", s.CancelHangout)
	hangouts.Get("/:id/messages", s.GetHangoutMessages)
	hangouts.Post("/:id/messages", middleware.RateLimit(s.redis, "hangout_chat", 30, time.Minute), s.PostHangoutMessage)
	hangouts.Put("/:id", s.UpdateHangout)
	hangouts.Get("/:id", s.GetHangout)

	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/unread-count", s.GetUnreadCount)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)

	// Websocket endpoint for realtime notification delivery
	ws := api.Group("/ws", middleware.AuthRequired)
	ws.Get("/", s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The app runs without Redis; realtime delivery is just degraded.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
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
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Gatherly API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.hub != nil && s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start hub wiring: %v", err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}
	log.Println("Server shutdown complete")
	return nil
}
