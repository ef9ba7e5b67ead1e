package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const deliveryTimeout = 30 * time.Second

// Notifier bridges internal NATS events to registered webhook endpoints.
type Notifier struct {
	registry Registry
	sender   *Sender
	logger   zerolog.Logger
}

func NewNotifier(registry Registry, sender *Sender, logger zerolog.Logger) *Notifier {
	return &Notifier{
		registry: registry,
		sender:   sender,
		logger:   logger.With().Str("component", "webhook_notifier").Logger(),
	}
}

// Subscribe starts forwarding messages on the subject to all subscribed
// endpoints. The NATS subject doubles as the webhook event name.
func (n *Notifier) Subscribe(nc *nats.Conn, subject string) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var data any
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			n.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("unparseable event payload")
			return
		}
		n.Fanout(msg.Subject, data)
	})
}

// Fanout delivers one event to every active endpoint subscribed to it.
// Deliveries run sequentially; a failing endpoint does not block the rest
// beyond its own timeout.
func (n *Notifier) Fanout(event string, data any) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	endpoints, err := n.registry.List(ctx)
	if err != nil {
		n.logger.Error().Err(err).Msg("endpoint list failed")
		return
	}

	for _, endpoint := range endpoints {
		if !endpoint.Subscribed(event) {
			continue
		}
		if err := n.sender.Send(ctx, endpoint, event, data); err != nil {
			n.logger.Warn().
				Err(err).
				Str("endpoint_id", endpoint.ID).
				Str("event", event).
				Msg("webhook delivery failed")
		}
	}
}
