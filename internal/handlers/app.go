package handlers

import (
	"errors"
	"huddle-backend/config"
	"huddle-backend/internal/auth"
	"huddle-backend/internal/meeting"
	"huddle-backend/internal/middleware"
	"huddle-backend/internal/models"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

var defaultOrigins = []string{
	"http://localhost:8090",
	"http://127.0.0.1:8090",
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// Deps are the services the HTTP layer is built on
type Deps struct {
	Config   *config.Config
	Meetings *meeting.Service
	Auth     *auth.AuthService
	Media    TokenIssuer
	DB       Pinger
}

// NewApp builds the fiber application with all routes registered
func NewApp(d Deps) *fiber.App {
	cfg := d.Config

	app := fiber.New(fiber.Config{
		AppName:      "Huddle API",
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			if code >= fiber.StatusInternalServerError {
				log.Error().Err(err).
					Str("path", c.Path()).
					Str("ip", c.IP()).
					Msg("Error handling request")
			}

			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	app.Get("/health", healthCheck)
	app.Get("/ready", readinessCheck(d.DB))

	protected := middleware.Protected(&cfg.Auth)
	optional := middleware.Optional(&cfg.Auth)

	authHandler := NewAuthHandler(d.Auth, cfg)
	app.Post("/auth/register", authHandler.Register)
	app.Post("/auth/login", authHandler.Login)
	app.Post("/auth/refresh", authHandler.RefreshToken)
	app.Post("/auth/logout", protected, authHandler.Logout)
	app.Get("/auth/me", protected, authHandler.GetMe)
	app.Get("/auth/providers", authHandler.Providers)
	app.Get("/auth/:provider/login", authHandler.BeginAuth)
	app.Get("/auth/:provider/callback", authHandler.AuthCallback)

	api := app.Group("/api")

	meetings := NewMeetingHandler(d.Meetings)
	hostOnly := []fiber.Handler{protected, middleware.RequireAccess(models.AccessUser)}

	api.Get("/meetings", append(hostOnly, meetings.List)...)
	api.Post("/meetings", append(hostOnly, meetings.Create)...)
	api.Get("/meetings/by-room/:roomCode", meetings.GetByRoomCode)
	api.Post("/meetings/leave", meetings.Leave)
	api.Get("/meetings/:id", meetings.Get)
	api.Patch("/meetings/:id", protected, meetings.Update)
	api.Delete("/meetings/:id", protected, meetings.Delete)
	api.Get("/meetings/:id/participants", meetings.ListParticipants)
	api.Post("/meetings/:id/participants", optional, meetings.Join)
	api.Get("/meetings/:id/chat", meetings.ListMessages)
	api.Post("/meetings/:id/chat", optional, meetings.PostMessage)

	mediaHandler := NewMediaHandler(d.Media)
	api.Post("/livekit/token", mediaHandler.Token)

	return app
}
