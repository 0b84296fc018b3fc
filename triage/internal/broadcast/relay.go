package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/telhawk-systems/telhawk-soc/common/messaging"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/metrics"
)

// Relay shares one monitor group across replicas. Publish sends to the
// broker, and every replica (this one included) delivers what it receives
// to its local hub. If the broker rejects a publish, delivery falls back to
// the local hub.
type Relay struct {
	client  messaging.Client
	subject string
	local   *Hub
	logger  *slog.Logger

	mu  sync.Mutex
	sub messaging.Subscription
}

func NewRelay(client messaging.Client, subject string, local *Hub, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		client:  client,
		subject: subject,
		local:   local,
		logger:  logger.With("component", "broadcast_relay", "subject", subject),
	}
}

// Start subscribes to the relay subject.
func (r *Relay) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub != nil {
		return nil
	}
	sub, err := r.client.Subscribe(r.subject, func(_ context.Context, msg *messaging.Message) error {
		r.local.Broadcast(msg.Data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.subject, err)
	}
	r.sub = sub
	return nil
}

// Publish implements Publisher.
func (r *Relay) Publish(ctx context.Context, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		r.logger.Error("failed to encode notification", "error", err)
		return
	}
	metrics.BroadcastPublished.WithLabelValues(string(n.Event)).Inc()

	if err := r.client.Publish(ctx, r.subject, data); err != nil {
		r.logger.Warn("relay publish failed, delivering locally", "error", err)
		r.local.Broadcast(data)
	}
}

// Close unsubscribes from the relay subject.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub == nil {
		return nil
	}
	err := r.sub.Unsubscribe()
	r.sub = nil
	return err
}
