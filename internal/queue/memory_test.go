package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryQueueDelivers(t *testing.T) {
	q := NewMemory(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Task, 1)
	go func() {
		_ = q.Worker(ctx, TaskTypeTranscript, func(_ context.Context, task Task) error {
			got <- task
			return nil
		})
	}()

	task := Task{Type: TaskTypeTranscript, Payload: []byte(`{"q":"hello"}`)}
	require.NoError(t, q.Enqueue(ctx, task))

	select {
	case delivered := <-got:
		require.Equal(t, TaskTypeTranscript, delivered.Type)
		require.Equal(t, task.Payload, delivered.Payload)
		require.NotEmpty(t, delivered.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("task was not delivered")
	}
}

func TestMemoryQueueRetriesFailedTasks(t *testing.T) {
	q := NewMemory(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		_ = q.Worker(ctx, TaskTypeTranscript, func(_ context.Context, task Task) error {
			if calls.Add(1) == 1 {
				return errors.New("transient failure")
			}
			close(done)
			return nil
		})
	}()

	require.NoError(t, q.Enqueue(ctx, Task{Type: TaskTypeTranscript, MaxAttempts: 3}))

	select {
	case <-done:
		require.GreaterOrEqual(t, calls.Load(), int32(2))
	case <-time.After(10 * time.Second):
		t.Fatal("task was not retried")
	}
}

func TestMemoryQueueRejectsUntypedTasks(t *testing.T) {
	q := NewMemory(testLogger())
	err := q.Enqueue(context.Background(), Task{})
	require.Error(t, err)
}

func TestEnqueueWithRetrySucceedsAfterFailure(t *testing.T) {
	ctx := context.Background()
	task := Task{Type: TaskTypeTranscript}

	mq := new(MockQueue)
	mq.On("Enqueue", ctx, task).Return(errors.New("broker down")).Once()
	mq.On("Enqueue", ctx, task).Return(nil).Once()

	err := EnqueueWithRetry(ctx, mq, task, 3, time.Millisecond)
	require.NoError(t, err)
	mq.AssertExpectations(t)
}

func TestEnqueueWithRetryGivesUp(t *testing.T) {
	ctx := context.Background()
	task := Task{Type: TaskTypeTranscript}

	mq := new(MockQueue)
	mq.On("Enqueue", ctx, task).Return(errors.New("broker down")).Times(3)

	err := EnqueueWithRetry(ctx, mq, task, 3, time.Millisecond)
	require.Error(t, err)
	mq.AssertExpectations(t)
}
