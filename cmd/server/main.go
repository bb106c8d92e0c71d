// Command server runs the intentify HTTP service: capture audio and
// screenshots into a session, then generate structured intent and prompt
// variants from it.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/intentify/internal/capture"
	"github.com/thebtf/intentify/internal/compose"
	"github.com/thebtf/intentify/internal/config"
	gormdb "github.com/thebtf/intentify/internal/db/gorm"
	"github.com/thebtf/intentify/internal/genai"
	"github.com/thebtf/intentify/internal/intent"
	"github.com/thebtf/intentify/internal/server"
	"github.com/thebtf/intentify/internal/speech"
	"github.com/thebtf/intentify/internal/watcher"
	"gorm.io/gorm/logger"
)

var version = "dev"

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != 0 {
		cfg.HTTPPort = *port
	}

	if cfg.DatabaseDriver == "sqlite" {
		if err := config.EnsureDataDir(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure data directory")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storeCfg := gormdb.Config{
		Driver:   cfg.DatabaseDriver,
		DSN:      cfg.DatabaseDSN,
		Path:     cfg.DBPath,
		MaxConns: cfg.MaxConns,
		LogLevel: logger.Silent,
	}
	store, err := gormdb.WaitForStore(ctx, storeCfg, 5, 2*time.Second, 30*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Database unreachable")
	}
	defer store.Close()

	timeout := time.Duration(cfg.GenerateTimeoutSecs) * time.Second
	genaiClient := genai.NewClient(genai.Config{
		APIKey:      cfg.GoogleAPIKey,
		BaseURL:     cfg.GenerativeBaseURL,
		Model:       cfg.Model,
		Timeout:     timeout,
		MaxInFlight: int64(cfg.MaxBackendCalls),
	})
	speechClient := speech.NewClient(speech.Config{
		APIKey:       cfg.GoogleAPIKey,
		Endpoint:     cfg.SpeechEndpoint,
		LanguageCode: cfg.LanguageCode,
		Timeout:      timeout,
		MaxInFlight:  int64(cfg.MaxBackendCalls),
	})

	svc := server.New(version, server.Deps{
		Config:       cfg,
		Store:        store,
		SessionStore: gormdb.NewSessionStore(store),
		PromptStore:  gormdb.NewPromptStore(store),
		Ingestor:     capture.NewIngestor(speechClient, genaiClient),
		Extractor:    intent.NewExtractor(genaiClient),
		Composer:     compose.NewComposer(genaiClient),
		Prober:       genaiClient,
	})

	// With a sqlite backend a wiped data dir would otherwise take the
	// service down; recreate the schema when the file disappears.
	if cfg.DatabaseDriver == "sqlite" {
		w, err := watcher.New(cfg.DBPath, func() {
			if err := config.EnsureDataDir(); err != nil {
				log.Error().Err(err).Msg("Failed to recreate data directory")
				return
			}
			if err := store.Reinitialize(); err != nil {
				log.Error().Err(err).Msg("Failed to recreate database schema")
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("Database watcher unavailable")
		} else if err := w.Start(); err != nil {
			log.Warn().Err(err).Msg("Database watcher failed to start")
		} else {
			defer w.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
