package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIProvider implements Provider against the OpenAI chat completion API.
type OpenAIProvider struct {
	client *openai.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIProvider builds a provider using the supplied API key.
func NewOpenAIProvider(apiKey string, logger zerolog.Logger) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIProvider{
		client: client,
		tracer: otel.Tracer("github.com/l33tdawg/cfp-directory-plugins/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_provider").Logger(),
	}, nil
}

// Name identifies the provider.
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Complete performs one chat completion round-trip.
func (p *OpenAIProvider) Complete(parent context.Context, req Request) (Response, error) {
	ctx, span := p.tracer.Start(parent, "openai.complete", trace.WithAttributes(
		attribute.String("model", req.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, request)
	callDuration.WithLabelValues(ProviderOpenAI, req.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		callFailures.WithLabelValues(ProviderOpenAI, req.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, translateOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		callFailures.WithLabelValues(ProviderOpenAI, req.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	return Response{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

func translateOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}

	return fmt.Errorf("openai complete: %w", err)
}
