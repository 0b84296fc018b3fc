// Package messaging abstracts the message broker used to fan triage
// notifications out across service replicas.
package messaging

import (
	"context"
	"time"
)

// Message is a message received from or sent to the broker.
type Message struct {
	Subject   string
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
}

// MessageHandler processes a received message.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription is an active subscription to a subject.
type Subscription interface {
	Unsubscribe() error
	Subject() string
	IsValid() bool
}

// Publisher publishes fire-and-forget messages.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	PublishMsg(ctx context.Context, msg *Message) error
	Close() error
}

// Subscriber receives messages. Every subscriber gets every message.
type Subscriber interface {
	Subscribe(subject string, handler MessageHandler) (Subscription, error)
	Close() error
}

// Client combines Publisher and Subscriber.
type Client interface {
	Publisher
	Subscriber

	// Drain closes the connection after in-flight messages are handled.
	Drain() error

	// IsConnected reports whether the broker connection is currently up.
	IsConnected() bool
}

// HealthStatus reports broker connectivity for health endpoints.
type HealthStatus struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// CheckHealth reports the state of client. A nil client means messaging is
// disabled, which is healthy.
func CheckHealth(client Client) HealthStatus {
	if client == nil {
		return HealthStatus{}
	}
	status := HealthStatus{Enabled: true, Connected: client.IsConnected()}
	if !status.Connected {
		status.Error = "not connected to message broker"
	}
	return status
}
