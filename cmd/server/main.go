package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quizrush/internal/config"
	"quizrush/internal/game"
	"quizrush/internal/quiz"
	"quizrush/internal/transport"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Server.Port).
		Dur("round_duration", cfg.Timings.RoundDuration).
		Msg("starting quizrush server")

	clock := clockwork.NewRealClock()

	// Question generation: external provider with static fallback.
	provider := quiz.NewHTTPProvider(quiz.ProviderConfig{
		BaseURL: cfg.Server.ProviderURL,
		APIKey:  cfg.Server.ProviderAPIKey,
		Model:   cfg.Server.ProviderModel,
		Timeout: cfg.Server.ProviderTimeout,
	})
	questions := quiz.NewService(provider, cfg.Server.ProviderTimeout)

	// Transport and game core.
	cm := transport.NewConnectionManager(transport.DefaultConnectionConfig())
	registry := game.NewRegistry()
	scheduler := game.NewScheduler(clock, registry, cm, cfg.Timings)
	coordinator := game.NewCoordinator(registry, scheduler, cm, questions, clock)
	gateway := transport.NewGateway(cm, coordinator)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go cm.Start(ctx)

	server := setupServer(cfg, gateway)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}
