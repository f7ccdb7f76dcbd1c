package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"tailortalk/internal/api"
	"tailortalk/internal/app"
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := api.StartTranscriptWorker(ctx, deps); err != nil && !errors.Is(err, context.Canceled) {
			deps.Log.Error("transcript worker stopped", "err", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", deps.Config.APIHost, deps.Config.APIPort)
	deps.Log.Info("backend listening", "addr", addr)
	if err := http.ListenAndServe(addr, api.Router(deps)); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}
