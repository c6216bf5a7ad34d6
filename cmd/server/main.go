package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gwi.com/botgpt/internal/api"
	"gwi.com/botgpt/internal/config"
	"gwi.com/botgpt/internal/core"
	"gwi.com/botgpt/internal/logger"
	"gwi.com/botgpt/internal/metrics"
	"gwi.com/botgpt/internal/store"
)

func main() {
	validateOnly := flag.Bool("validate-config", false, "Validate configuration and exit")
	flag.Parse()

	cfg, dotenv, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if !dotenv {
		log.Debug().Msg("no .env file found, using process environment")
	}

	requested := cfg.LLMProvider
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.LLMProvider != requested {
		log.Warn().
			Str("requested", requested).
			Str("using", cfg.LLMProvider).
			Msg("provider credentials missing, falling back")
	}
	if *validateOnly {
		log.Info().Str("provider", cfg.LLMProvider).Msg("configuration is valid")
		return
	}

	ctx := context.Background()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("database", cfg.DatabaseURL).Msg("failed to initialize database")
	}
	defer dbStore.Close()

	m := metrics.New()

	provider, err := core.NewReplyProvider(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLMProvider).Msg("failed to initialize reply provider")
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	conversations := core.NewConversationService(dbStore, core.InstrumentProvider(provider, m),
		core.WithLogger(log.With().Str("component", "conversations").Logger()),
		core.WithReplyTimeout(cfg.ProviderTimeout),
		core.WithConversationLocking(cfg.ConversationLocking),
	)
	accounts := core.NewAccountService(dbStore, log.With().Str("component", "accounts").Logger())

	apiHandler := api.NewAPIHandler(conversations, accounts, dbStore, log.With().Str("component", "api").Logger())
	router := api.NewRouter(apiHandler, log, m)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Leaves room for a provider call that runs to its full timeout.
		WriteTimeout: cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", serverAddr).
			Str("provider", provider.Name()).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", serverAddr).Msg("could not listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	log.Info().Msg("server exiting gracefully")
}
