package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bondbot-backend/internal/config"
	"bondbot-backend/internal/handlers"
	"bondbot-backend/internal/middleware"
	"bondbot-backend/internal/repository"
	"bondbot-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to the document store
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping MongoDB")
	}
	log.Info().
		Str("database", cfg.MongoDB.Database).
		Str("collection", cfg.MongoDB.Collection).
		Msg("MongoDB connection established")

	coll := mongoClient.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)

	// Initialize repository and bootstrap the configured pair
	pairRepo := repository.NewPairStateRepository(coll)
	if err := pairRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexes")
	}
	if err := pairRepo.EnsurePair(ctx, cfg.Pair.ID); err != nil {
		log.Error().Err(err).Str("pair_id", cfg.Pair.ID).Msg("Failed to initialize pair state")
	} else {
		log.Info().Str("pair_id", cfg.Pair.ID).Msg("Pair state ready")
	}

	// Initialize services
	presence := services.NewPresenceTracker(pairRepo, time.Duration(cfg.Presence.OfflineAfterSeconds)*time.Second)
	logbook := services.NewInteractionLog(pairRepo)
	router := services.NewMessageRouter(presence, logbook, pairRepo)

	mqttClient := services.NewMQTTClient(
		cfg.MQTT.BrokerURL(),
		cfg.MQTT.Username,
		cfg.MQTT.Password,
		cfg.MQTT.ClientIDPrefix,
		router.Handle,
	)
	if err := mqttClient.Connect(); err != nil {
		log.Fatal().Err(err).Str("broker", cfg.MQTT.BrokerURL()).Msg("Failed to connect to MQTT broker")
	}
	defer mqttClient.Disconnect()

	classifier := services.NewGeminiClassifier(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.BaseURL,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second,
	)

	var archive *services.AudioArchive
	if cfg.AWS.S3Bucket != "" {
		archive, err = services.NewAudioArchive(
			cfg.AWS.Region,
			cfg.AWS.S3Bucket,
			cfg.AWS.AccessKey,
			cfg.AWS.SecretKey,
			cfg.AWS.Endpoint,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create audio archive")
		}
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Audio archiving enabled")
	}

	moodService := services.NewMoodAnalysisService(classifier, mqttClient, logbook, archive)

	// Start the presence staleness sweeper
	if err := presence.StartSweeper(time.Duration(cfg.Presence.SweepIntervalSeconds) * time.Second); err != nil {
		log.Fatal().Err(err).Msg("Failed to start presence sweeper")
	}
	defer presence.StopSweeper()

	// Initialize handlers
	moodHandler := handlers.NewMoodHandler(moodService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Routes
	r.Get("/health", moodHandler.Health)
	r.Group(func(r chi.Router) {
		if cfg.Auth.Secret != "" {
			r.Use(middleware.DeviceAuth(cfg.Auth.Secret))
		}
		r.Post("/analyze-mood", moodHandler.AnalyzeMood)
	})
	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.NotFound)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
