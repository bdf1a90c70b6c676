package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/linkvault/companion-core/internal/auth"
	"github.com/linkvault/companion-core/internal/command"
	"github.com/linkvault/companion-core/internal/config"
	"github.com/linkvault/companion-core/internal/database"
	"github.com/linkvault/companion-core/internal/handler"
	"github.com/linkvault/companion-core/internal/jobs"
	"github.com/linkvault/companion-core/internal/middleware"
	"github.com/linkvault/companion-core/internal/notify"
	"github.com/linkvault/companion-core/internal/redis"
	"github.com/linkvault/companion-core/internal/repository"
	"github.com/linkvault/companion-core/internal/service"
	"github.com/linkvault/companion-core/internal/sse"
	"github.com/linkvault/companion-core/internal/transcribe"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	pairingRepo := repository.NewPairingRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	sessionStore := auth.NewRedisSessionStore(redisClient)

	var notifier notify.Notifier = notify.NewLogNotifier()
	if cfg.OwnerUserID != "" {
		notifier = notify.NewBrokerNotifier(broker, cfg.OwnerUserID)
	}
	executor := command.NewExecutor(notifier, cfg.DefaultVolume, cfg.ActionDelay())

	approvalService := service.NewApprovalService(pairingRepo, broker)
	barService := service.NewCommandBarService(
		newTranscriber(cfg), executor, notifier, cfg.RecognizerLocale,
	)

	authMiddleware := middleware.NewAuthMiddleware(sessionStore)

	pairingHandler := handler.NewPairingHandler(approvalService)
	commandHandler := handler.NewCommandHandler(barService, executor)
	recordingHandler := handler.NewRecordingHandler(barService)
	eventsHandler := handler.NewEventsHandler(broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)

		r.Post("/pair/scan", pairingHandler.Scan)
		r.Get("/pairings/{token}", pairingHandler.Get)

		r.Post("/commands", commandHandler.Submit)
		r.Get("/system/status", commandHandler.SystemStatus)

		r.Post("/recording/toggle", recordingHandler.Toggle)
		r.Get("/recording", recordingHandler.State)

		r.Get("/events", eventsHandler.ServeHTTP)
	})

	cleanupJob := jobs.NewCleanupJob(pairingRepo, config.CleanupJobInterval, cfg.PairingTTL())
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newTranscriber picks the speech backend: a local recognizer service
// when one is configured, otherwise record-and-upload through the
// hosted API.
func newTranscriber(cfg *config.Config) transcribe.Transcriber {
	if cfg.RecognizerURL != "" {
		log.Info().Str("url", cfg.RecognizerURL).Msg("using streaming recognizer")
		return transcribe.NewStreamingTranscriber(cfg.RecognizerURL)
	}

	if cfg.TranscribeAPIKey == "" {
		log.Warn().Msg("no transcription backend configured, voice commands will only save audio")
	}

	recorder := transcribe.NewFFMPEGRecorder(
		cfg.RecorderCommand, cfg.RecorderInputFormat, cfg.RecorderInputDevice, "",
	)
	return transcribe.NewBatchTranscriber(transcribe.BatchConfig{
		APIKey:       cfg.TranscribeAPIKey,
		BaseURL:      cfg.TranscribeBaseURL,
		PollInterval: cfg.TranscribePollInterval(),
		PollLimit:    cfg.TranscribePollLimit,
	}, recorder, transcribe.NewAllowAllGate(), &http.Client{Timeout: config.TranscribeRequestTimeout})
}

func setLogLevel(level string) {
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
