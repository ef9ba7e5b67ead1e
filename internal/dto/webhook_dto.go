package dto

import (
	"time"

	"github.com/l33tdawg/cfp-directory-plugins/internal/webhook"
)

// WebhookEndpointRequest creates or updates a webhook endpoint. Secret is
// write-only; an empty value on update keeps the stored secret.
type WebhookEndpointRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Secret string   `json:"secret,omitempty"`
	Events []string `json:"events"`
	Active bool     `json:"active"`
}

// WebhookEndpointResponse is the client view of an endpoint. The signing
// secret is reduced to a presence flag.
type WebhookEndpointResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	HasSecret bool      `json:"hasSecret"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewWebhookEndpointResponse maps a stored endpoint to its API shape.
func NewWebhookEndpointResponse(endpoint webhook.Endpoint) WebhookEndpointResponse {
	return WebhookEndpointResponse{
		ID:        endpoint.ID,
		URL:       endpoint.URL,
		HasSecret: endpoint.Secret != "",
		Events:    endpoint.Events,
		Active:    endpoint.Active,
		CreatedAt: endpoint.CreatedAt,
	}
}
