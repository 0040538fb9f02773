// Package main is the entrypoint for the ArticleForge gateway server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/articleforge/articleforge/internal/api"
	"github.com/articleforge/articleforge/internal/api/handler"
	mw "github.com/articleforge/articleforge/internal/api/middleware"
	"github.com/articleforge/articleforge/internal/article"
	"github.com/articleforge/articleforge/internal/config"
	"github.com/articleforge/articleforge/internal/gateway"
	"github.com/articleforge/articleforge/internal/gen"
	"github.com/articleforge/articleforge/internal/images"
	"github.com/articleforge/articleforge/internal/research"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config first so an invalid environment fails before anything starts.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "gen_provider", cfg.Gen.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := gen.NewProvider(cfg.Gen)
	if err != nil {
		return fmt.Errorf("create generation provider: %w", err)
	}
	slog.Info("generation provider initialized", "provider", provider.Name())

	store := research.NewMemoryStore()
	researchSvc := research.NewService(provider, store, cfg.Research.Timeout, cfg.Research.PollInterval)
	articleGen := article.NewGenerator(provider, cfg.Gen.Gemini.ProModel, cfg.Gen.Gemini.FlashModel).
		WithTimeout(cfg.Gen.InferenceTimeout)
	imageGen := images.NewGenerator(provider)

	dispatcher := gateway.NewDispatcher(researchSvc, articleGen, imageGen, cfg.Output.Dir)

	auth, err := mw.NewAuth(cfg.Gateway.APIKey)
	if err != nil {
		return fmt.Errorf("create auth middleware: %w", err)
	}

	router := api.NewRouter(api.Dependencies{
		Auth:          auth,
		HealthHandler: handler.NewHealthHandler(provider.Name()),
		ToolsHandler:  handler.NewToolsHandler(dispatcher),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
