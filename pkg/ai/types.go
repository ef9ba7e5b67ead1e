package ai

import (
	"context"
	"fmt"
)

// Usage is the normalized token accounting shape across providers.
// Providers that omit a field report it as 0.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Add returns the element-wise sum of two usage records.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Request describes one chat completion round-trip.
type Request struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	// WebSearch asks the provider to ground the response with a web search.
	// Only Gemini supports it; other providers ignore the flag entirely.
	WebSearch bool
}

// Response is the normalized completion result.
type Response struct {
	Content string
	Usage   Usage
}

// Provider performs a single request/response round-trip against an upstream
// chat API. Implementations carry no retry logic; that belongs to callers.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// StatusError is returned for any non-2xx upstream response. The body is the
// provider's error text, passed through without interpretation.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}
