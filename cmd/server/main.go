package main

import (
	"huddle-backend/config"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"huddle-backend/internal/auth"
	"huddle-backend/internal/database"
	"huddle-backend/internal/events"
	"huddle-backend/internal/handlers"
	"huddle-backend/internal/media"
	"huddle-backend/internal/meeting"
	"huddle-backend/internal/repository"
	"huddle-backend/internal/scheduler"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const revocationPurgeInterval = time.Hour

func init() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logLevel, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	output := os.Stdout
	if cfg.Logger.OutputPath != "" {
		file, err := os.OpenFile(cfg.Logger.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			output = file
		}
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
	})
}

func main() {
	cfg := config.Get()

	// gothic reads the store during provider setup
	auth.InitializeSessionStore(cfg.Auth.SessionSecret, strings.HasPrefix(cfg.Auth.FrontendURL, "https://"))

	if err := database.Initialize(&cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	userRepo := repository.NewUserRepository(database.GetDB())
	meetingRepo := repository.NewMeetingRepository(database.GetDB())

	if err := scheduler.Initialize(userRepo, revocationPurgeInterval); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer scheduler.Stop()

	auth.Init(cfg)

	broker := media.NewBroker(cfg.LiveKit)
	if !broker.Configured() {
		log.Warn().Msg("LiveKit is not configured, media tokens are unavailable")
	}

	var publisher meeting.EventPublisher = meeting.NopPublisher{}
	if cfg.Events.NatsURL != "" {
		natsPublisher, nc, err := events.Connect(cfg.Events.NatsURL, cfg.Events.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.Events.NatsURL).Msg("Failed to connect to NATS")
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				log.Warn().Err(err).Msg("Failed to drain NATS connection")
			}
		}()
		publisher = natsPublisher
	}

	meetings := meeting.NewService(meetingRepo,
		meeting.WithEvents(publisher),
		meeting.WithMediaRooms(broker),
		meeting.WithRoomCodeAttempts(cfg.Meetings.RoomCodeAttempts),
	)

	app := handlers.NewApp(handlers.Deps{
		Config:   cfg,
		Meetings: meetings,
		Auth:     auth.NewAuthService(userRepo, &cfg.Auth),
		Media:    broker,
		DB:       meetingRepo,
	})

	serverAddr := cfg.Server.Host + ":" + cfg.Server.Port
	go func() {
		if err := app.Listen(serverAddr); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}
