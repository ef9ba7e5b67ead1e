package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/l33tdawg/cfp-directory-plugins/internal/datastore"
)

const (
	endpointsNamespace = "webhooks"
	endpointsKey       = "endpoints"
)

// ErrEndpointNotFound indicates the endpoint id is unknown.
var ErrEndpointNotFound = errors.New("webhook endpoint not found")

// Endpoint is one registered webhook target. The secret signs outbound
// payloads; handlers must never echo it back to clients.
type Endpoint struct {
	ID        string    `json:"id"`
	URL       string    `json:"url" validate:"required,url"`
	Secret    string    `json:"secret,omitempty"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscribed reports whether the endpoint wants the given event. An empty
// event list means all events.
func (e Endpoint) Subscribed(event string) bool {
	if !e.Active {
		return false
	}
	if len(e.Events) == 0 {
		return true
	}
	for _, name := range e.Events {
		if name == event {
			return true
		}
	}
	return false
}

// Registry persists webhook endpoints. The whole set is stored encrypted
// because each entry carries a signing secret.
type Registry interface {
	List(ctx context.Context) ([]Endpoint, error)
	Get(ctx context.Context, id string) (Endpoint, error)
	Save(ctx context.Context, endpoint Endpoint) (Endpoint, error)
	Delete(ctx context.Context, id string) error
}

type registry struct {
	store  datastore.Store
	logger zerolog.Logger
}

func NewRegistry(store datastore.Store, logger zerolog.Logger) Registry {
	return &registry{
		store:  store,
		logger: logger.With().Str("component", "webhook_registry").Logger(),
	}
}

func (r *registry) List(ctx context.Context) ([]Endpoint, error) {
	var endpoints []Endpoint
	found, err := r.store.Get(ctx, endpointsNamespace, endpointsKey, &endpoints)
	if err != nil {
		return nil, err
	}
	if !found {
		return []Endpoint{}, nil
	}
	return endpoints, nil
}

func (r *registry) Get(ctx context.Context, id string) (Endpoint, error) {
	endpoints, err := r.List(ctx)
	if err != nil {
		return Endpoint{}, err
	}
	for _, endpoint := range endpoints {
		if endpoint.ID == id {
			return endpoint, nil
		}
	}
	return Endpoint{}, ErrEndpointNotFound
}

// Save creates the endpoint when its id is empty, otherwise replaces the
// stored entry. An update with an empty secret keeps the existing one so
// clients can edit an endpoint without re-submitting the secret.
func (r *registry) Save(ctx context.Context, endpoint Endpoint) (Endpoint, error) {
	endpoints, err := r.List(ctx)
	if err != nil {
		return Endpoint{}, err
	}

	if endpoint.ID == "" {
		endpoint.ID = uuid.NewString()
		endpoint.CreatedAt = time.Now().UTC()
		endpoints = append(endpoints, endpoint)
	} else {
		idx := -1
		for i, existing := range endpoints {
			if existing.ID == endpoint.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Endpoint{}, ErrEndpointNotFound
		}
		if endpoint.Secret == "" {
			endpoint.Secret = endpoints[idx].Secret
		}
		endpoint.CreatedAt = endpoints[idx].CreatedAt
		endpoints[idx] = endpoint
	}

	if err := r.store.Set(ctx, endpointsNamespace, endpointsKey, endpoints, datastore.WithEncryption()); err != nil {
		return Endpoint{}, err
	}

	r.logger.Info().Str("endpoint_id", endpoint.ID).Msg("webhook endpoint saved")
	return endpoint, nil
}

func (r *registry) Delete(ctx context.Context, id string) error {
	endpoints, err := r.List(ctx)
	if err != nil {
		return err
	}

	kept := endpoints[:0]
	for _, endpoint := range endpoints {
		if endpoint.ID != id {
			kept = append(kept, endpoint)
		}
	}
	if len(kept) == len(endpoints) {
		return ErrEndpointNotFound
	}

	if err := r.store.Set(ctx, endpointsNamespace, endpointsKey, kept, datastore.WithEncryption()); err != nil {
		return err
	}

	r.logger.Info().Str("endpoint_id", id).Msg("webhook endpoint deleted")
	return nil
}
