package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tailortalk/internal/retry"
)

const memoryQueueDepth = 256

// NewMemory constructs an in-process queue backed by channels. It is the
// default so the application runs standalone without a broker.
func NewMemory(log *slog.Logger) Queue {
	return &memoryQueue{
		log:    log,
		topics: make(map[TaskType]chan Task),
	}
}

type memoryQueue struct {
	log    *slog.Logger
	mu     sync.Mutex
	topics map[TaskType]chan Task
}

func (q *memoryQueue) topic(taskType TaskType) chan Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.topics[taskType]
	if !ok {
		ch = make(chan Task, memoryQueueDepth)
		q.topics[taskType] = ch
	}
	return ch
}

func (q *memoryQueue) Enqueue(ctx context.Context, task Task) error {
	if task.Type == "" {
		return errors.New("task type required")
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	select {
	case q.topic(task.Type) <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("queue full")
	}
}

func (q *memoryQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	ch := q.topic(taskType)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-ch:
			if wait := time.Until(task.NotBefore); wait > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
			if err := handler(ctx, task); err != nil {
				q.retryTask(ctx, task, err)
			}
		}
	}
}

func (q *memoryQueue) retryTask(ctx context.Context, task Task, handlerErr error) {
	task.Attempts++
	if task.MaxAttempts == 0 {
		task.MaxAttempts = 5
	}

	if task.Attempts < task.MaxAttempts {
		task.NotBefore = time.Now().Add(retry.ExponentialBackoff(task.Attempts, time.Second))
		if err := q.Enqueue(ctx, task); err != nil {
			q.log.Error("failed to re-enqueue task after failure", "id", task.ID, "type", task.Type, "original_err", handlerErr, "enqueue_err", err)
		}
	} else {
		q.log.Error("task permanently failed", "id", task.ID, "type", task.Type, "original_err", handlerErr)
	}
}
