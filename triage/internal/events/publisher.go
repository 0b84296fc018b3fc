package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/telhawk-systems/telhawk-soc/common/messaging"
)

// Publisher emits lifecycle messages.
type Publisher interface {
	PublishAlertCreated(ctx context.Context, event *AlertCreatedEvent) error
	PublishCaseCreated(ctx context.Context, event *CaseCreatedEvent) error
	PublishCaseDispatched(ctx context.Context, event *CaseDispatchedEvent) error
}

// BrokerPublisher publishes lifecycle messages through a message broker.
type BrokerPublisher struct {
	client messaging.Publisher
}

func NewBrokerPublisher(client messaging.Publisher) *BrokerPublisher {
	return &BrokerPublisher{client: client}
}

func (p *BrokerPublisher) PublishAlertCreated(ctx context.Context, event *AlertCreatedEvent) error {
	return p.publish(ctx, messaging.SubjectAlertsCreated, event)
}

func (p *BrokerPublisher) PublishCaseCreated(ctx context.Context, event *CaseCreatedEvent) error {
	return p.publish(ctx, messaging.SubjectCasesCreated, event)
}

func (p *BrokerPublisher) PublishCaseDispatched(ctx context.Context, event *CaseDispatchedEvent) error {
	return p.publish(ctx, messaging.SubjectCasesDispatched, event)
}

func (p *BrokerPublisher) publish(ctx context.Context, subject string, data any) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.client.Publish(ctx, subject, bytes)
}

// Nop drops every message.
type Nop struct{}

func (Nop) PublishAlertCreated(context.Context, *AlertCreatedEvent) error     { return nil }
func (Nop) PublishCaseCreated(context.Context, *CaseCreatedEvent) error       { return nil }
func (Nop) PublishCaseDispatched(context.Context, *CaseDispatchedEvent) error { return nil }
