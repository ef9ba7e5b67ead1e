package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/l33tdawg/cfp-directory-plugins/internal/observability"
)

const senderUserAgent = "cfp-webhook/1.0"

// Payload is the wire format delivered to endpoints.
type Payload struct {
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// URLValidator gates outbound URLs. *Validator is the production
// implementation.
type URLValidator interface {
	Validate(ctx context.Context, rawURL string) error
}

// Sender delivers signed webhook payloads. Every send re-validates the
// endpoint URL first; a URL that passed at configuration time may resolve
// somewhere else now.
type Sender struct {
	client    *http.Client
	validator URLValidator
	logger    zerolog.Logger
}

func NewSender(validator URLValidator, timeout time.Duration, logger zerolog.Logger) *Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		client:    &http.Client{Timeout: timeout},
		validator: validator,
		logger:    logger.With().Str("component", "webhook_sender").Logger(),
	}
}

// Send posts one event to the endpoint. The body is `{event, timestamp,
// data}`; when the endpoint has a secret, the body is signed with
// HMAC-SHA256 and the hex digest sent as X-Webhook-Signature.
func (s *Sender) Send(ctx context.Context, endpoint Endpoint, event string, data any) error {
	if err := s.validator.Validate(ctx, endpoint.URL); err != nil {
		observability.WebhookDeliveries().WithLabelValues("rejected").Inc()
		return fmt.Errorf("webhook url rejected: %w", err)
	}

	now := time.Now().UTC()
	body, err := json.Marshal(Payload{
		Event:     event,
		Timestamp: now.Unix(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", senderUserAgent)
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(now.Unix(), 10))
	if endpoint.Secret != "" {
		req.Header.Set("X-Webhook-Signature", "sha256="+sign(body, endpoint.Secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		observability.WebhookDeliveries().WithLabelValues("failed").Inc()
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.WebhookDeliveries().WithLabelValues("failed").Inc()
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	observability.WebhookDeliveries().WithLabelValues("delivered").Inc()
	s.logger.Info().
		Str("endpoint_id", endpoint.ID).
		Str("event", event).
		Int("status", resp.StatusCode).
		Msg("webhook delivered")
	return nil
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
