package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/config"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/leaderboard"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	store, err := data.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.StorageDriver).Msg("Failed to open storage")
	}
	defer store.Close()

	r := newRouter(leaderboard.NewStoreFetcher(store))

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
	)(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.LoggingHandler(os.Stdout, corsHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-done
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
