package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tailortalk/internal/app"
	"tailortalk/internal/config"
)

func newTestDeps(backendURL string) app.Deps {
	return app.Deps{
		Config: config.Config{BackendURL: backendURL},
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestServesChatPage(t *testing.T) {
	r := Router(newTestDeps("http://localhost:8000"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "TailorTalk")
	require.Contains(t, rec.Body.String(), "/api/query")
}

func TestProxyForwardsToBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/query", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), "survival")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": "ok"})
	}))
	defer backend.Close()

	r := Router(newTestDeps(backend.URL))
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query_text":"survival rate?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "ok")
}

func TestProxyPreservesStatusAndQuery(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "alice", r.URL.Query().Get("username"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer backend.Close()

	r := Router(newTestDeps(backend.URL))
	req := httptest.NewRequest(http.MethodGet, "/api/history?username=alice", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProxyReportsUnreachableBackend(t *testing.T) {
	r := Router(newTestDeps("http://127.0.0.1:1"))
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
