package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-soc/common/messaging"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (r *recordingPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func (r *recordingPublisher) PublishMsg(ctx context.Context, msg *messaging.Message) error {
	return r.Publish(ctx, msg.Subject, msg.Data)
}

func (r *recordingPublisher) Close() error { return nil }

func TestBrokerPublisher_Subjects(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewBrokerPublisher(rec)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	require.NoError(t, p.PublishAlertCreated(ctx, &AlertCreatedEvent{AlertID: 1, Severity: "LOW", CreatedAt: now}))
	require.NoError(t, p.PublishCaseCreated(ctx, &CaseCreatedEvent{CaseID: 2, AlertID: 1, TaskCount: 5}))
	require.NoError(t, p.PublishCaseDispatched(ctx, &CaseDispatchedEvent{DispatchID: 3, CaseID: 2, Channel: "SIEM", Recipients: []string{"siem"}}))

	assert.Equal(t, []string{
		messaging.SubjectAlertsCreated,
		messaging.SubjectCasesCreated,
		messaging.SubjectCasesDispatched,
	}, rec.subjects)

	var alert AlertCreatedEvent
	require.NoError(t, json.Unmarshal(rec.payloads[0], &alert))
	assert.Equal(t, int64(1), alert.AlertID)
	assert.True(t, now.Equal(alert.CreatedAt))

	var c CaseCreatedEvent
	require.NoError(t, json.Unmarshal(rec.payloads[1], &c))
	assert.Equal(t, 5, c.TaskCount)
}

func TestBrokerPublisher_PropagatesErrors(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("nats: no servers available")}
	p := NewBrokerPublisher(rec)

	err := p.PublishAlertCreated(context.Background(), &AlertCreatedEvent{AlertID: 1})
	assert.EqualError(t, err, "nats: no servers available")
}
