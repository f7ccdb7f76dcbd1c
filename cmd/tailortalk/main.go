// Command tailortalk runs the backend API and the chat frontend in one
// process, mirroring the two-service layout without needing two binaries.
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

	"golang.org/x/sync/errgroup"

	"tailortalk/internal/api"
	"tailortalk/internal/app"
	"tailortalk/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", deps.Config.APIHost, deps.Config.APIPort),
		Handler: api.Router(deps),
	}
	frontend := &http.Server{
		Addr:    fmt.Sprintf(":%d", deps.Config.FrontendPort),
		Handler: web.Router(deps),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := api.StartTranscriptWorker(gctx, deps); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("transcript worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		deps.Log.Info("backend listening", "addr", backend.Addr)
		if err := backend.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("backend: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		deps.Log.Info("frontend listening", "addr", frontend.Addr, "backend", deps.Config.BackendURL)
		if err := frontend.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("frontend: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := frontend.Shutdown(shutdownCtx); err != nil {
			deps.Log.Warn("frontend shutdown", "err", err)
		}
		if err := backend.Shutdown(shutdownCtx); err != nil {
			deps.Log.Warn("backend shutdown", "err", err)
		}
		if err := deps.Store.Close(); err != nil {
			deps.Log.Warn("store close", "err", err)
		}
		if err := deps.Cache.Close(); err != nil {
			deps.Log.Warn("cache close", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("exited with error", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("goodbye")
}
