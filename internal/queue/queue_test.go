package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, "test:jobs", zerolog.Nop())
}

func TestQueueRunsRegisteredHandler(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	var got map[string]any
	q.RegisterHandler("analyze", func(ctx context.Context, payload map[string]any) (any, error) {
		got = payload
		return map[string]any{"ok": true}, nil
	})

	id, err := q.Enqueue(ctx, "analyze", map[string]any{"submissionId": float64(7)}, 1)
	require.NoError(t, err)

	require.NoError(t, q.processNext(ctx))
	require.Equal(t, float64(7), got["submissionId"])

	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, job.Status)
	require.Equal(t, 1, job.Attempts)
}

func TestQueueRetriesUntilMaxAttempts(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	calls := 0
	q.RegisterHandler("flaky", func(ctx context.Context, payload map[string]any) (any, error) {
		calls++
		return nil, errors.New("boom")
	})

	id, err := q.Enqueue(ctx, "flaky", nil, 2)
	require.NoError(t, err)

	require.NoError(t, q.processNext(ctx))
	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusPending, job.Status)

	require.NoError(t, q.processNext(ctx))
	job, err = q.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, job.Status)
	require.Equal(t, "boom", job.Error)
	require.Equal(t, 2, calls)
}

func TestQueueSingleAttemptJobFailsWithoutRerun(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	calls := 0
	q.RegisterHandler("analyze", func(ctx context.Context, payload map[string]any) (any, error) {
		calls++
		return nil, errors.New("provider rejected the configured api key")
	})

	id, err := q.Enqueue(ctx, "analyze", nil, 1)
	require.NoError(t, err)

	require.NoError(t, q.processNext(ctx))
	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, job.Status)
	require.Equal(t, 1, calls)

	// Nothing left on the pending list to pick up.
	require.ErrorIs(t, q.processNext(ctx), redis.Nil)
	require.Equal(t, 1, calls)
}

func TestQueuePanickingHandlerFailsJob(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.RegisterHandler("analyze", func(ctx context.Context, payload map[string]any) (any, error) {
		panic("malformed payload")
	})

	id, err := q.Enqueue(ctx, "analyze", nil, 1)
	require.NoError(t, err)

	require.NoError(t, q.processNext(ctx))
	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, job.Status)
	require.Contains(t, job.Error, "handler panic")
}

func TestQueueCancelledJobIsSkipped(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	calls := 0
	q.RegisterHandler("analyze", func(ctx context.Context, payload map[string]any) (any, error) {
		calls++
		return nil, nil
	})

	id, err := q.Enqueue(ctx, "analyze", nil, 1)
	require.NoError(t, err)
	require.NoError(t, q.CancelJob(ctx, id))

	require.NoError(t, q.processNext(ctx))
	require.Zero(t, calls)

	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, job.Status)
}

func TestQueueCancelLeavesNonPendingJobsAlone(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.RegisterHandler("analyze", func(ctx context.Context, payload map[string]any) (any, error) {
		return "done", nil
	})

	id, err := q.Enqueue(ctx, "analyze", nil, 1)
	require.NoError(t, err)
	require.NoError(t, q.processNext(ctx))

	require.NoError(t, q.CancelJob(ctx, id))
	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, job.Status)
}

func TestQueueGetJobsFiltersByStatus(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.RegisterHandler("analyze", func(ctx context.Context, payload map[string]any) (any, error) {
		return nil, nil
	})

	first, err := q.Enqueue(ctx, "analyze", map[string]any{"submissionId": float64(1)}, 1)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "analyze", map[string]any{"submissionId": float64(2)}, 1)
	require.NoError(t, err)

	// Complete the first job only (FIFO order).
	require.NoError(t, q.processNext(ctx))

	pending, err := q.GetJobs(ctx, StatusPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, float64(2), pending[0].Payload["submissionId"])

	completed, err := q.GetJobs(ctx, StatusCompleted, 10)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, first, completed[0].ID)
}

func TestQueueUnknownHandlerFailsJob(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, "unregistered", nil, 3)
	require.NoError(t, err)
	require.NoError(t, q.processNext(ctx))

	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, job.Status)
	require.Contains(t, job.Error, "no handler registered")
}
