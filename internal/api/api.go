package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tailortalk/internal/analytics"
	"tailortalk/internal/app"
	"tailortalk/internal/cache"
	"tailortalk/internal/charts"
	"tailortalk/internal/httputil"
	"tailortalk/internal/llm"
	"tailortalk/internal/nlp"
	"tailortalk/internal/store"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type queryRequest struct {
	QueryText string `json:"query_text" validate:"required,min=3,max=500"`
	Username  string `json:"username" validate:"omitempty,max=100"`
}

type answerPayload struct {
	TextContent       string   `json:"text_content"`
	VisualizationType string   `json:"visualization_type"`
	VisualizationPath string   `json:"visualization_path"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

type queryResponse struct {
	QueryID   string        `json:"query_id"`
	QueryText string        `json:"query_text"`
	Timestamp time.Time     `json:"timestamp"`
	Cached    bool          `json:"cached"`
	Response  answerPayload `json:"response"`
}

type historyResponse struct {
	Username string          `json:"username"`
	Count    int             `json:"count"`
	Items    []queryResponse `json:"items"`
}

// Router mounts the backend API.
func Router(deps app.Deps) *chi.Mux {
	analyzer := analytics.New(deps.Dataset)

	r := httputil.NewRouter(deps.Log)
	r.Post("/api/query", queryHandler(deps, analyzer))
	r.Get("/api/history", historyHandler(deps))
	r.Get("/api/status", statusHandler(deps))
	r.Get("/api/visualizations/{filename}", visualizationHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

func queryHandler(deps app.Deps, analyzer *analytics.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if req.Username == "" {
			req.Username = store.DefaultUsername
		}

		ctx := r.Context()

		if _, err := deps.Store.GetOrCreateUser(ctx, req.Username); err != nil {
			httputil.Fail(deps.Log, w, "failed to resolve user", err, http.StatusInternalServerError)
			return
		}

		queryID := uuid.New()
		now := time.Now().UTC()

		// Identical questions are answered from cache.
		cacheKey := cache.GenerateCacheKey(req.QueryText)
		if cached, err := deps.Cache.GetAnswer(ctx, cacheKey); err == nil && cached != nil {
			deps.Log.Info("cache hit", "query", req.QueryText)
			recordExchange(ctx, deps, store.Exchange{
				QueryID:  queryID,
				Username: req.Username,
				Question: req.QueryText,
				Answer: store.Answer{
					TextContent:       cached.TextContent,
					VisualizationType: cached.VisualizationType,
					VisualizationPath: cached.VisualizationPath,
					FollowUps:         cached.FollowUps,
				},
				CreatedAt: now,
			})
			httputil.WriteJSON(w, http.StatusOK, queryResponse{
				QueryID:   queryID.String(),
				QueryText: req.QueryText,
				Timestamp: now,
				Cached:    true,
				Response: answerPayload{
					TextContent:       cached.TextContent,
					VisualizationType: cached.VisualizationType,
					VisualizationPath: cached.VisualizationPath,
					FollowUpQuestions: cached.FollowUps,
				},
			})
			return
		} else if err != nil {
			deps.Log.Warn("cache lookup failed", "err", err)
		}

		directive, err := deps.LLM.Interpret(ctx, req.QueryText)
		if errors.Is(err, llm.ErrUnauthorized) {
			httputil.Fail(deps.Log, w, "llm credentials rejected", err, http.StatusUnauthorized)
			return
		}
		if err != nil {
			// Degrade to the offline interpretation rather than fail the query.
			deps.Log.Warn("llm interpretation failed, using keyword fallback", "err", err)
			directive = llm.Directive{Analysis: string(nlp.Classify(req.QueryText))}
		}

		res := analyzer.Run(analytics.ParseKind(directive.Analysis), req.QueryText)
		res = applyDirective(res, directive)

		filename, err := deps.Renderer.Render(res)
		if err != nil {
			deps.Log.Warn("chart rendering failed, answering without visualization", "err", err)
			filename = ""
		}
		vizPath := ""
		if filename != "" {
			vizPath = "/api/visualizations/" + filename
		}

		text, suggestions := nlp.Compose(res)

		answer := store.Answer{
			TextContent:       text,
			VisualizationType: res.Chart,
			VisualizationPath: vizPath,
			FollowUps:         suggestions,
		}
		recordExchange(ctx, deps, store.Exchange{
			QueryID:   queryID,
			Username:  req.Username,
			Question:  req.QueryText,
			Answer:    answer,
			CreatedAt: now,
		})

		ttl := time.Duration(deps.Config.CacheTTL) * time.Second
		if err := deps.Cache.SetAnswer(ctx, cacheKey, &cache.Answer{
			TextContent:       text,
			VisualizationType: res.Chart,
			VisualizationPath: vizPath,
			FollowUps:         suggestions,
		}, ttl); err != nil {
			deps.Log.Warn("failed to cache answer", "err", err)
		}

		httputil.WriteJSON(w, http.StatusOK, queryResponse{
			QueryID:   queryID.String(),
			QueryText: req.QueryText,
			Timestamp: now,
			Cached:    false,
			Response: answerPayload{
				TextContent:       text,
				VisualizationType: res.Chart,
				VisualizationPath: vizPath,
				FollowUpQuestions: suggestions,
			},
		})
	}
}

// applyDirective lets the model steer presentation, but only onto chart
// types the computed series can actually feed.
func applyDirective(res analytics.Result, d llm.Directive) analytics.Result {
	if d.Title != "" {
		res.Title = d.Title
	}
	hint := charts.Normalize(d.Chart)
	if hint == "" || hint == res.Chart {
		return res
	}
	switch hint {
	case analytics.ChartBar, analytics.ChartPie:
		if len(res.Labels) > 0 && len(res.Labels) == len(res.Values) {
			res.Chart = hint
		}
	case analytics.ChartHistogram:
		if len(res.Samples) > 0 {
			res.Chart = hint
		}
	case analytics.ChartLine:
		if len(res.Values) >= 2 {
			res.Chart = hint
		}
	}
	return res
}

func historyHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			username = store.DefaultUsername
		}
		limit := queryInt(r, "limit", defaultHistoryLimit)
		if limit < 1 || limit > maxHistoryLimit {
			limit = defaultHistoryLimit
		}
		skip := queryInt(r, "skip", 0)
		if skip < 0 {
			skip = 0
		}

		ctx := r.Context()
		if err := deps.Store.UpdateLastActive(ctx, username); err != nil && !errors.Is(err, store.ErrUserNotFound) {
			deps.Log.Warn("failed to update last active", "username", username, "err", err)
		}

		exchanges, err := deps.Store.History(ctx, username, limit, skip)
		if errors.Is(err, store.ErrUserNotFound) {
			httputil.WriteJSON(w, http.StatusOK, historyResponse{Username: username, Items: []queryResponse{}})
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load history", err, http.StatusInternalServerError)
			return
		}

		items := make([]queryResponse, 0, len(exchanges))
		for _, ex := range exchanges {
			items = append(items, queryResponse{
				QueryID:   ex.QueryID.String(),
				QueryText: ex.Question,
				Timestamp: ex.CreatedAt,
				Response: answerPayload{
					TextContent:       ex.Answer.TextContent,
					VisualizationType: ex.Answer.VisualizationType,
					VisualizationPath: ex.Answer.VisualizationPath,
					FollowUpQuestions: ex.Answer.FollowUps,
				},
			})
		}
		httputil.WriteJSON(w, http.StatusOK, historyResponse{
			Username: username,
			Count:    len(items),
			Items:    items,
		})
	}
}

func statusHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"message":         "TailorTalk backend is running",
			"status":          "operational",
			"passenger_count": deps.Dataset.Len(),
			"llm_provider":    deps.Config.LLMProvider,
			"timestamp":       time.Now().UTC(),
		})
	}
}

func visualizationHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") || !strings.HasSuffix(filename, ".png") {
			httputil.Fail(deps.Log, w, "invalid filename", nil, http.StatusBadRequest)
			return
		}
		path := filepath.Join(deps.Renderer.Dir(), filename)
		if _, err := os.Stat(path); err != nil {
			httputil.Fail(deps.Log, w, "visualization not found", err, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, path)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
