package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tailortalk/internal/app"
	"tailortalk/internal/cache"
	"tailortalk/internal/charts"
	"tailortalk/internal/config"
	"tailortalk/internal/dataset"
	"tailortalk/internal/llm"
	"tailortalk/internal/queue"
	"tailortalk/internal/store"
)

const fixtureCSV = `PassengerId,Survived,Pclass,Name,Sex,Age,SibSp,Parch,Ticket,Fare,Cabin,Embarked
1,0,3,"Braund, Mr. Owen Harris",male,22,1,0,A/5 21171,7.25,,S
2,1,1,"Cumings, Mrs. John Bradley (Florence Briggs Thayer)",female,38,1,0,PC 17599,71.2833,C85,C
3,1,3,"Heikkinen, Miss. Laina",female,26,0,0,STON/O2. 3101282,7.925,,S
4,1,1,"Futrelle, Mrs. Jacques Heath (Lily May Peel)",female,35,1,0,113803,53.1,C123,S
5,0,3,"Allen, Mr. William Henry",male,35,0,0,373450,8.05,,S
6,0,3,"Moran, Mr. James",male,,0,0,330877,8.4583,,Q
7,0,1,"McCarthy, Mr. Timothy J",male,54,0,0,17463,51.8625,E46,S
8,0,3,"Palsson, Master. Gosta Leonard",male,2,3,1,349909,21.075,,S
9,1,2,"Sandstrom, Mlle. Marguerite Rut",female,4,1,1,PP 9549,16.7,G6,
10,1,1,"Icard, the Countess. of Rothes",female,33,0,0,113572,80,B28,C
`

type testMocks struct {
	store *store.MockStore
	cache *cache.MockCache
	queue *queue.MockQueue
	llm   *llm.MockClient
}

func newTestDeps(t *testing.T) (app.Deps, *testMocks) {
	t.Helper()

	ds, err := dataset.New(strings.NewReader(fixtureCSV))
	require.NoError(t, err)

	renderer, err := charts.NewRenderer(t.TempDir())
	require.NoError(t, err)

	m := &testMocks{
		store: new(store.MockStore),
		cache: new(cache.MockCache),
		queue: new(queue.MockQueue),
		llm:   new(llm.MockClient),
	}
	deps := app.Deps{
		Config:   config.Config{CacheTTL: 300, LLMProvider: "rule"},
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dataset:  ds,
		Store:    m.store,
		Cache:    m.cache,
		Queue:    m.queue,
		Renderer: renderer,
		LLM:      m.llm,
	}
	return deps, m
}

func postQuery(t *testing.T, r http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestQueryAnswersWithVisualization(t *testing.T) {
	deps, m := newTestDeps(t)
	m.store.On("GetOrCreateUser", mock.Anything, "alice").Return(store.User{Username: "alice"}, nil)
	m.cache.On("GetAnswer", mock.Anything, mock.Anything).Return(nil, nil)
	m.cache.On("SetAnswer", mock.Anything, mock.Anything, mock.Anything, 300*time.Second).Return(nil)
	m.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(task queue.Task) bool {
		return task.Type == queue.TaskTypeTranscript
	})).Return(nil)
	m.llm.On("Interpret", mock.Anything, "What was the survival rate?").
		Return(llm.Directive{Analysis: "survival_analysis"}, nil)

	rec := postQuery(t, Router(deps), map[string]string{
		"query_text": "What was the survival rate?",
		"username":   "alice",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.QueryID)
	require.False(t, resp.Cached)
	require.Contains(t, resp.Response.TextContent, "Survival")
	require.NotEmpty(t, resp.Response.FollowUpQuestions)
	require.True(t, strings.HasPrefix(resp.Response.VisualizationPath, "/api/visualizations/"))

	// The chart file must exist on disk.
	filename := strings.TrimPrefix(resp.Response.VisualizationPath, "/api/visualizations/")
	_, err := os.Stat(filepath.Join(deps.Renderer.Dir(), filename))
	require.NoError(t, err)

	m.store.AssertExpectations(t)
	m.queue.AssertExpectations(t)
	m.llm.AssertExpectations(t)
}

func TestQueryValidation(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := Router(deps)

	tests := []struct {
		name string
		body any
	}{
		{"missing query_text", map[string]string{"username": "alice"}},
		{"too short", map[string]string{"query_text": "hi"}},
		{"too long", map[string]string{"query_text": strings.Repeat("x", 501)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postQuery(t, r, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestQueryRejectsBadCredentials(t *testing.T) {
	deps, m := newTestDeps(t)
	m.store.On("GetOrCreateUser", mock.Anything, store.DefaultUsername).Return(store.User{}, nil)
	m.cache.On("GetAnswer", mock.Anything, mock.Anything).Return(nil, nil)
	m.llm.On("Interpret", mock.Anything, mock.Anything).
		Return(llm.Directive{}, llm.ErrUnauthorized)

	rec := postQuery(t, Router(deps), map[string]string{
		"query_text": "What was the survival rate?",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueryFallsBackWhenLLMFails(t *testing.T) {
	deps, m := newTestDeps(t)
	m.store.On("GetOrCreateUser", mock.Anything, store.DefaultUsername).Return(store.User{}, nil)
	m.cache.On("GetAnswer", mock.Anything, mock.Anything).Return(nil, nil)
	m.cache.On("SetAnswer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil)
	m.llm.On("Interpret", mock.Anything, mock.Anything).
		Return(llm.Directive{}, errors.New("model overloaded"))

	rec := postQuery(t, Router(deps), map[string]string{
		"query_text": "What was the age distribution of passengers?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Response.TextContent, "Age Analysis")
}

func TestQueryServesCachedAnswer(t *testing.T) {
	deps, m := newTestDeps(t)
	m.store.On("GetOrCreateUser", mock.Anything, store.DefaultUsername).Return(store.User{}, nil)
	m.cache.On("GetAnswer", mock.Anything, cache.GenerateCacheKey("What was the survival rate?")).
		Return(&cache.Answer{TextContent: "cached answer", VisualizationType: "pie"}, nil)
	m.queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	rec := postQuery(t, Router(deps), map[string]string{
		"query_text": "What was the survival rate?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Cached)
	require.Equal(t, "cached answer", resp.Response.TextContent)
	m.llm.AssertNotCalled(t, "Interpret", mock.Anything, mock.Anything)
}

func TestHistory(t *testing.T) {
	deps, m := newTestDeps(t)
	exchanges := []store.Exchange{
		{
			QueryID:   uuid.New(),
			Username:  "alice",
			Question:  "survival rate?",
			Answer:    store.Answer{TextContent: "answer", FollowUps: []string{"next?"}},
			CreatedAt: time.Now().UTC(),
		},
	}
	m.store.On("UpdateLastActive", mock.Anything, "alice").Return(nil)
	m.store.On("History", mock.Anything, "alice", 10, 0).Return(exchanges, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/history?username=alice", nil)
	rec := httptest.NewRecorder()
	Router(deps).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "survival rate?", resp.Items[0].QueryText)
	require.Equal(t, []string{"next?"}, resp.Items[0].Response.FollowUpQuestions)
	m.store.AssertExpectations(t)
}

func TestHistoryUnknownUserIsEmpty(t *testing.T) {
	deps, m := newTestDeps(t)
	m.store.On("UpdateLastActive", mock.Anything, "nobody").Return(store.ErrUserNotFound)
	m.store.On("History", mock.Anything, "nobody", 10, 0).Return(nil, store.ErrUserNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/history?username=nobody", nil)
	rec := httptest.NewRecorder()
	Router(deps).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Zero(t, resp.Count)
	require.Empty(t, resp.Items)
}

func TestStatus(t *testing.T) {
	deps, _ := newTestDeps(t)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	Router(deps).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "operational", resp["status"])
	require.EqualValues(t, 10, resp["passenger_count"])
}

func TestVisualizationServing(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := Router(deps)

	png := []byte("\x89PNG\r\n\x1a\nfake")
	require.NoError(t, os.WriteFile(filepath.Join(deps.Renderer.Dir(), "chart.png"), png, 0o644))

	tests := []struct {
		name     string
		filename string
		want     int
	}{
		{"existing chart", "chart.png", http.StatusOK},
		{"missing chart", "missing.png", http.StatusNotFound},
		{"wrong extension", "chart.txt", http.StatusBadRequest},
		{"path traversal", "..%2fchart.png", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/visualizations/"+tt.filename, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
				require.Equal(t, png, rec.Body.Bytes())
			}
		})
	}
}

func TestTranscriptHandlerSavesExchange(t *testing.T) {
	deps, m := newTestDeps(t)
	ex := store.Exchange{
		QueryID:   uuid.New(),
		Username:  "alice",
		Question:  "survival rate?",
		Answer:    store.Answer{TextContent: "answer", VisualizationType: "pie"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	body, err := json.Marshal(transcriptPayload{
		QueryID:           ex.QueryID,
		Username:          ex.Username,
		Question:          ex.Question,
		TextContent:       ex.Answer.TextContent,
		VisualizationType: ex.Answer.VisualizationType,
		CreatedAt:         ex.CreatedAt,
	})
	require.NoError(t, err)

	m.store.On("SaveExchange", mock.Anything, mock.MatchedBy(func(got store.Exchange) bool {
		return got.QueryID == ex.QueryID && got.Question == ex.Question
	})).Return(nil)

	handler := TranscriptHandler(deps)
	require.NoError(t, handler(context.Background(), queue.Task{Type: queue.TaskTypeTranscript, Payload: body}))
	m.store.AssertExpectations(t)
}

func TestTranscriptHandlerDropsMalformedPayload(t *testing.T) {
	deps, m := newTestDeps(t)
	handler := TranscriptHandler(deps)
	require.NoError(t, handler(context.Background(), queue.Task{Type: queue.TaskTypeTranscript, Payload: []byte("not json")}))
	m.store.AssertNotCalled(t, "SaveExchange", mock.Anything, mock.Anything)
}
