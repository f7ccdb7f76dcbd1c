package web

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tailortalk/internal/app"
	"tailortalk/internal/httputil"
)

//go:embed static
var staticFS embed.FS

// Router serves the chat page and proxies API calls to the backend, so the
// browser only ever talks to one origin.
func Router(deps app.Deps) *chi.Mux {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	r := httputil.NewRouter(deps.Log)
	r.Handle("/api/*", proxyHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Handle("/*", http.FileServer(http.FS(static)))
	return r
}

func proxyHandler(deps app.Deps) http.HandlerFunc {
	backend := strings.TrimRight(deps.Config.BackendURL, "/")
	client := &http.Client{Timeout: 60 * time.Second}

	return func(w http.ResponseWriter, r *http.Request) {
		url := backend + r.URL.Path
		if r.URL.RawQuery != "" {
			url += "?" + r.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to create request", err, http.StatusInternalServerError)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			req.Header.Set("Content-Type", ct)
		}

		resp, err := client.Do(req)
		if err != nil {
			httputil.Fail(deps.Log, w, "backend unavailable", err, http.StatusServiceUnavailable)
			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			deps.Log.Error("failed to copy response", "err", err)
		}
	}
}
