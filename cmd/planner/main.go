package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/movie-planner-go/internal/bot"
	"github.com/user/movie-planner-go/internal/config"
	"github.com/user/movie-planner-go/internal/engine"
	"github.com/user/movie-planner-go/internal/server"
	"github.com/user/movie-planner-go/internal/store"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func main() {
	// Initialize structured JSON logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.Log.Level).Msg("Invalid LOG_LEVEL")
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Str("source", cfg.Dataset.Source).Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dataset source: local CSV files or tables mirrored into MySQL
	var (
		source  store.Source
		closeDB func() error
	)
	switch cfg.Dataset.Source {
	case config.SourceMySQL:
		mysqlSource, err := store.NewMySQLSource(&cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		log.Info().Msg("Database connection established")
		source, closeDB = mysqlSource, mysqlSource.Close
	default:
		source = store.NewCSVSource(cfg.Dataset.Dir)
		log.Info().Str("dir", cfg.Dataset.Dir).Msg("Using CSV dataset")
	}

	movieStore := store.New(source, store.WithLoadHook(server.RecordDatasetLoad))
	if cfg.Dataset.Warm {
		start := time.Now()
		movieStore.Warm(ctx)
		log.Info().Dur("took", time.Since(start)).Msg("Dataset warmed")
	}

	movieEngine := engine.New(movieStore)
	if cfg.Dataset.Warm {
		movieEngine.Index()
	}
	tools := server.NewToolbox(movieEngine, cfg.Tool.Timeout)

	httpServer := server.NewServer(tools, movieStore, cfg.Tool.RateLimit, cfg.Tool.RateBurst)

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// The Telegram transport is optional
	var telegramClient *bot.Client
	if cfg.Bot.Enabled() {
		telegramClient, err = bot.NewClient(cfg.Bot.Token)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram client")
		}
		botHandler := bot.NewHandler(tools, movieStore, telegramClient, cfg.Bot.ResultLimit)

		go func() {
			log.Info().Msg("Starting Telegram bot polling")
			for update := range telegramClient.GetUpdates() {
				botHandler.HandleUpdate(ctx, update)
			}
		}()
	} else {
		log.Info().Msg("BOT_TOKEN not set, Telegram bot disabled")
	}

	log.Info().Msg("Movie planner started successfully")

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop Telegram bot polling
	if telegramClient != nil {
		telegramClient.StopReceivingUpdates()
		log.Info().Msg("Telegram bot polling stopped")
	}

	// 2. Stop HTTP server
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 3. Close database connection pool
	if closeDB != nil {
		if err := closeDB(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		} else {
			log.Info().Msg("Database connection closed")
		}
	}

	cancel()

	select {
	case <-shutdownCtx.Done():
		if shutdownCtx.Err() == context.DeadlineExceeded {
			log.Warn().Msg("Shutdown timeout exceeded, forcing exit")
		}
	default:
		log.Info().Msg("Graceful shutdown completed")
	}
}
