// ABOUTME: Entry point - loads configuration, wires the store, Gemini client,
// ABOUTME: MCP registry and orchestrator, and runs the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/lunalab/mcpchat/config"
	"github.com/lunalab/mcpchat/llm"
	"github.com/lunalab/mcpchat/mcpclient"
	"github.com/lunalab/mcpchat/orchestrator"
	"github.com/lunalab/mcpchat/server"
	"github.com/lunalab/mcpchat/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	if err := run(context.Background(), *configPath, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.GeminiAPIKey == "" {
		return errors.New("Gemini API key is not set (GEMINI_API_KEY or MCPCHAT_GEMINI_API_KEY)")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	images, err := store.NewImageStore(cfg.ImageDir, cfg.BaseURL+"/images")
	if err != nil {
		return err
	}

	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		return err
	}
	client := llm.WithRetry(gemini, logger)

	registry := mcpclient.NewRegistry(logger)
	caps := mcpclient.NewCapabilities(registry)
	orch := orchestrator.New(client, caps, images, logger, orchestrator.Config{
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.New(registry, caps, orch, st, images, logger).Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := registry.DisconnectAll(shutdownCtx); err != nil {
		logger.Error("disconnecting servers failed", "error", err)
	}
	return nil
}
