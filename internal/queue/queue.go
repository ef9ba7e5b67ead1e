// Package queue implements the job queue contract the plugins run against:
// enqueue, handler registration, status listing, and cooperative cancel.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ErrJobNotFound indicates the job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// Job is one unit of queued work.
type Job struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Payload     map[string]any `json:"payload"`
	Status      string         `json:"status"`
	Attempts    int            `json:"attempts"`
	MaxAttempts int            `json:"max_attempts"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	EnqueuedAt  time.Time      `json:"enqueued_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Handler processes one job payload and returns its result.
type Handler func(ctx context.Context, payload map[string]any) (any, error)

// Queue is a redis-backed job queue with a single worker loop.
type Queue struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	// jobTTL bounds how long finished job records are kept around.
	jobTTL time.Duration
}

// New constructs a queue using the given key prefix.
func New(client *redis.Client, prefix string, logger zerolog.Logger) *Queue {
	return &Queue{
		client:   client,
		prefix:   prefix,
		logger:   logger.With().Str("component", "job_queue").Logger(),
		handlers: make(map[string]Handler),
		jobTTL:   24 * time.Hour,
	}
}

// RegisterHandler binds a handler to a job type. Replaces any previous handler.
func (q *Queue) RegisterHandler(jobType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

func (q *Queue) jobKey(id string) string { return q.prefix + ":job:" + id }

func (q *Queue) pendingKey() string { return q.prefix + ":pending" }

func (q *Queue) indexKey() string { return q.prefix + ":index" }

// Enqueue stores a job and pushes it onto the pending list.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload map[string]any, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	job := Job{
		ID:          uuid.NewString(),
		Type:        jobType,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: maxAttempts,
		EnqueuedAt:  time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := q.saveJob(ctx, job); err != nil {
		return "", err
	}

	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, q.indexKey(), job.ID)
	pipe.LTrim(ctx, q.indexKey(), 0, 999)
	pipe.LPush(ctx, q.pendingKey(), job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", jobType, err)
	}

	q.logger.Info().Str("job_id", job.ID).Str("job_type", jobType).Msg("job enqueued")
	return job.ID, nil
}

// GetJob loads one job by id.
func (q *Queue) GetJob(ctx context.Context, id string) (Job, error) {
	raw, err := q.client.Get(ctx, q.jobKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("load job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

// GetJobs returns up to limit recent jobs with the given status, newest first.
// The scan over the index is bounded by limit*4 entries so a deep backlog
// cannot turn a status listing into a full keyspace walk.
func (q *Queue) GetJobs(ctx context.Context, status string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}

	ids, err := q.client.LRange(ctx, q.indexKey(), 0, int64(limit*4-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]Job, 0, limit)
	for _, id := range ids {
		if len(jobs) == limit {
			break
		}
		job, err := q.GetJob(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if status == "" || job.Status == status {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

// CancelJob marks a pending job cancelled. Running jobs are not interrupted;
// the worker skips cancelled jobs when it pops them.
func (q *Queue) CancelJob(ctx context.Context, id string) error {
	job, err := q.GetJob(ctx, id)
	if err != nil {
		return err
	}

	if job.Status != StatusPending {
		return nil
	}

	job.Status = StatusCancelled
	job.UpdatedAt = time.Now().UTC()
	if err := q.saveJob(ctx, job); err != nil {
		return err
	}

	q.logger.Info().Str("job_id", id).Msg("job cancelled")
	return nil
}

// Start runs the worker loop until the context is cancelled.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info().Msg("job worker started")
	for {
		select {
		case <-ctx.Done():
			q.logger.Info().Msg("job worker stopped")
			return
		default:
		}

		if err := q.processNext(ctx); err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			q.logger.Error().Err(err).Msg("worker iteration failed")
			time.Sleep(time.Second)
		}
	}
}

// processNext pops and runs one job. Returns redis.Nil when the queue is idle.
func (q *Queue) processNext(ctx context.Context) error {
	popped, err := q.client.BRPop(ctx, time.Second, q.pendingKey()).Result()
	if err != nil {
		return err
	}

	job, err := q.GetJob(ctx, popped[1])
	if err != nil {
		return err
	}

	if job.Status == StatusCancelled {
		q.logger.Info().Str("job_id", job.ID).Msg("skipping cancelled job")
		return nil
	}

	q.mu.RLock()
	handler, ok := q.handlers[job.Type]
	q.mu.RUnlock()
	if !ok {
		job.Status = StatusFailed
		job.Error = fmt.Sprintf("no handler registered for job type %q", job.Type)
		job.UpdatedAt = time.Now().UTC()
		return q.saveJob(ctx, job)
	}

	job.Status = StatusRunning
	job.Attempts++
	job.UpdatedAt = time.Now().UTC()
	if err := q.saveJob(ctx, job); err != nil {
		return err
	}

	result, handlerErr := q.runHandler(ctx, handler, job.Payload)
	job.UpdatedAt = time.Now().UTC()

	if handlerErr != nil {
		job.Error = handlerErr.Error()
		if job.Attempts < job.MaxAttempts {
			job.Status = StatusPending
			if err := q.saveJob(ctx, job); err != nil {
				return err
			}
			return q.client.LPush(ctx, q.pendingKey(), job.ID).Err()
		}
		job.Status = StatusFailed
		q.logger.Warn().Str("job_id", job.ID).Str("job_type", job.Type).Int("attempts", job.Attempts).Msg("job failed")
		return q.saveJob(ctx, job)
	}

	job.Status = StatusCompleted
	job.Result = result
	job.Error = ""
	q.logger.Info().Str("job_id", job.ID).Str("job_type", job.Type).Msg("job completed")
	return q.saveJob(ctx, job)
}

// runHandler invokes the handler, converting a panic into a job error so a
// bad payload cannot take the worker loop down.
func (q *Queue) runHandler(ctx context.Context, handler Handler, payload map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error().Interface("panic", r).Msg("job handler panicked")
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, payload)
}

func (q *Queue) saveJob(ctx context.Context, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := q.client.Set(ctx, q.jobKey(job.ID), encoded, q.jobTTL).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}
