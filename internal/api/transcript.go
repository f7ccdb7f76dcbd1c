package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"tailortalk/internal/app"
	"tailortalk/internal/queue"
	"tailortalk/internal/store"
)

const (
	transcriptEnqueueAttempts = 3
	transcriptEnqueueBackoff  = 100 * time.Millisecond
)

// transcriptPayload is the wire form of an exchange inside a queue task.
type transcriptPayload struct {
	QueryID           uuid.UUID `json:"query_id"`
	Username          string    `json:"username"`
	Question          string    `json:"question"`
	TextContent       string    `json:"text_content"`
	VisualizationType string    `json:"visualization_type"`
	VisualizationPath string    `json:"visualization_path"`
	FollowUps         []string  `json:"follow_ups"`
	CreatedAt         time.Time `json:"created_at"`
}

// recordExchange hands the finished exchange to the queue so persistence
// stays off the request path. Failures are logged, never surfaced.
func recordExchange(ctx context.Context, deps app.Deps, ex store.Exchange) {
	body, err := json.Marshal(transcriptPayload{
		QueryID:           ex.QueryID,
		Username:          ex.Username,
		Question:          ex.Question,
		TextContent:       ex.Answer.TextContent,
		VisualizationType: ex.Answer.VisualizationType,
		VisualizationPath: ex.Answer.VisualizationPath,
		FollowUps:         ex.Answer.FollowUps,
		CreatedAt:         ex.CreatedAt,
	})
	if err != nil {
		deps.Log.Error("failed to encode transcript task", "err", err)
		return
	}
	task := queue.Task{
		ID:      uuid.New(),
		Type:    queue.TaskTypeTranscript,
		Payload: body,
	}
	if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, transcriptEnqueueAttempts, transcriptEnqueueBackoff); err != nil {
		deps.Log.Error("failed to enqueue transcript", "query_id", ex.QueryID, "err", err)
	}
}

// TranscriptHandler persists queued exchanges into the history store.
func TranscriptHandler(deps app.Deps) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var p transcriptPayload
		if err := json.Unmarshal(task.Payload, &p); err != nil {
			deps.Log.Error("discarding malformed transcript task", "id", task.ID, "err", err)
			return nil
		}
		return deps.Store.SaveExchange(ctx, store.Exchange{
			QueryID:  p.QueryID,
			Username: p.Username,
			Question: p.Question,
			Answer: store.Answer{
				TextContent:       p.TextContent,
				VisualizationType: p.VisualizationType,
				VisualizationPath: p.VisualizationPath,
				FollowUps:         p.FollowUps,
			},
			CreatedAt: p.CreatedAt,
		})
	}
}

// StartTranscriptWorker runs the transcript consumer until ctx is canceled.
func StartTranscriptWorker(ctx context.Context, deps app.Deps) error {
	return deps.Queue.Worker(ctx, queue.TaskTypeTranscript, TranscriptHandler(deps))
}
