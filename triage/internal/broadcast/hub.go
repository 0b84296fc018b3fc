// Package broadcast fans new-alert and new-case notifications out to
// connected dashboard sessions.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/metrics"
)

// GroupMonitor is the group every dashboard session joins.
const GroupMonitor = "monitor"

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Publisher delivers notifications on a best-effort basis. Publish never
// fails; an unavailable transport drops the notification.
type Publisher interface {
	Publish(ctx context.Context, n Notification)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Publish(context.Context, Notification) {}

// Subscription is one session's membership in a hub. Messages arrive on C
// until Done is closed.
type Subscription struct {
	ID   string
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

// C returns the channel of encoded notifications. It is never closed;
// select on Done as well.
func (s *Subscription) C() <-chan []byte { return s.ch }

// Done is closed when the subscription is removed from its hub.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Hub is a named group of subscribers backed by a sync.Map, so joins and
// leaves never block a publisher.
type Hub struct {
	name   string
	logger *slog.Logger
	subs   sync.Map // id -> *Subscription
	count  atomic.Int64
}

func NewHub(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{name: name, logger: logger.With("group", name)}
}

// Name returns the group name.
func (h *Hub) Name() string { return h.name }

// Len returns the current number of subscribers.
func (h *Hub) Len() int { return int(h.count.Load()) }

// Subscribe joins the group. Notifications published before this call are
// not replayed. buffer <= 0 uses DefaultBuffer.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{
		ID:   uuid.NewString(),
		ch:   make(chan []byte, buffer),
		done: make(chan struct{}),
	}
	h.subs.Store(s.ID, s)
	h.count.Add(1)
	metrics.Subscribers.Inc()
	h.logger.Debug("subscriber joined", "subscriber", s.ID, "subscribers", h.Len())
	return s
}

// Unsubscribe leaves the group. It is safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscription) {
	if _, loaded := h.subs.LoadAndDelete(s.ID); !loaded {
		return
	}
	s.once.Do(func() { close(s.done) })
	h.count.Add(-1)
	metrics.Subscribers.Dec()
	h.logger.Debug("subscriber left", "subscriber", s.ID, "subscribers", h.Len())
}

// Publish encodes n and hands it to every current subscriber.
func (h *Hub) Publish(ctx context.Context, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("failed to encode notification", "error", err)
		return
	}
	metrics.BroadcastPublished.WithLabelValues(string(n.Event)).Inc()
	h.Broadcast(data)
}

// Broadcast delivers pre-encoded data. A subscriber whose queue is full
// misses the message.
func (h *Hub) Broadcast(data []byte) int {
	delivered := 0
	h.subs.Range(func(_, value any) bool {
		s := value.(*Subscription)
		select {
		case <-s.done:
			return true
		default:
		}
		select {
		case s.ch <- data:
			delivered++
			metrics.BroadcastDelivered.Inc()
		default:
			metrics.BroadcastDropped.Inc()
			h.logger.Warn("subscriber queue full, notification dropped", "subscriber", s.ID)
		}
		return true
	})
	return delivered
}
