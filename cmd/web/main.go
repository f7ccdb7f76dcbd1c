package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"tailortalk/internal/app"
	"tailortalk/internal/web"
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.FrontendPort)
	deps.Log.Info("frontend listening", "addr", addr, "backend", deps.Config.BackendURL)
	if err := http.ListenAndServe(addr, web.Router(deps)); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}
