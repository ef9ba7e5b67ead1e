package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/l33tdawg/cfp-directory-plugins/pkg/ai"
)

const costKey = "ai-reviewer:cost"

// CostStats is the accumulated spend for the current tracking period.
type CostStats struct {
	TotalCostUSD float64   `json:"totalCostUsd"`
	InputTokens  int64     `json:"inputTokens"`
	OutputTokens int64     `json:"outputTokens"`
	ReviewCount  int64     `json:"reviewCount"`
	PeriodStart  time.Time `json:"periodStart"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// CostTracker accumulates per-review spend so the budget gate can be
// enforced before dispatching new provider calls.
type CostTracker interface {
	Record(ctx context.Context, usage ai.Usage, costUSD float64) error
	Stats(ctx context.Context) (CostStats, error)
	Reset(ctx context.Context) error
}

type costTracker struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

func NewCostTracker(rdb *redis.Client, logger zerolog.Logger) CostTracker {
	return &costTracker{
		rdb:    rdb,
		logger: logger.With().Str("component", "cost_tracker").Logger(),
	}
}

// Record adds a completed review's usage to the running totals. Increments
// are atomic on the redis side, so concurrent workers never lose a write.
func (t *costTracker) Record(ctx context.Context, usage ai.Usage, costUSD float64) error {
	now := time.Now().UTC()

	pipe := t.rdb.TxPipeline()
	pipe.HSetNX(ctx, costKey, "period_start", now.Format(time.RFC3339))
	pipe.HIncrByFloat(ctx, costKey, "total_cost_usd", costUSD)
	pipe.HIncrBy(ctx, costKey, "input_tokens", int64(usage.InputTokens))
	pipe.HIncrBy(ctx, costKey, "output_tokens", int64(usage.OutputTokens))
	pipe.HIncrBy(ctx, costKey, "review_count", 1)
	pipe.HSet(ctx, costKey, "last_updated", now.Format(time.RFC3339))

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return nil
}

func (t *costTracker) Stats(ctx context.Context) (CostStats, error) {
	fields, err := t.rdb.HGetAll(ctx, costKey).Result()
	if err != nil {
		return CostStats{}, err
	}

	stats := CostStats{}
	stats.TotalCostUSD = parseFloatField(fields, "total_cost_usd")
	stats.InputTokens = parseIntField(fields, "input_tokens")
	stats.OutputTokens = parseIntField(fields, "output_tokens")
	stats.ReviewCount = parseIntField(fields, "review_count")
	stats.PeriodStart = parseTimeField(fields, "period_start")
	stats.LastUpdated = parseTimeField(fields, "last_updated")
	return stats, nil
}

// Reset clears the accumulated totals, starting a fresh tracking period.
func (t *costTracker) Reset(ctx context.Context) error {
	if err := t.rdb.Del(ctx, costKey).Err(); err != nil {
		return err
	}
	t.logger.Info().Msg("cost stats reset")
	return nil
}

func parseFloatField(fields map[string]string, name string) float64 {
	v, err := strconv.ParseFloat(fields[name], 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntField(fields map[string]string, name string) int64 {
	v, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseTimeField(fields map[string]string, name string) time.Time {
	t, err := time.Parse(time.RFC3339, fields[name])
	if err != nil {
		return time.Time{}
	}
	return t
}
