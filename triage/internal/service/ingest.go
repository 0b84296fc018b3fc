package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/telhawk-systems/telhawk-soc/common/logging"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/broadcast"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/events"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/metrics"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/policy"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
)

// SourceAPI labels metrics and lifecycle events for ingestion requests.
const SourceAPI = "api"

// IngestResult identifies what an ingestion wrote. CaseID is nil when the
// event did not escalate.
type IngestResult struct {
	AlertID int64  `json:"alert_id"`
	CaseID  *int64 `json:"case_id"`
}

// Ingest validates event, writes an alert and (when the triage policy
// escalates) a case with its tasks in one transaction, then notifies
// monitors. Nothing is broadcast unless the transaction commits.
func (s *TriageService) Ingest(ctx context.Context, event *models.Event) (*IngestResult, error) {
	return s.IngestFrom(ctx, event, SourceAPI)
}

// IngestFrom is Ingest with an explicit source label.
func (s *TriageService) IngestFrom(ctx context.Context, event *models.Event, source string) (*IngestResult, error) {
	if event == nil {
		metrics.IngestFailures.WithLabelValues("invalid").Inc()
		return nil, invalidf("event is required")
	}
	if err := event.Validate(); err != nil {
		metrics.IngestFailures.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if _, err := s.repo.GetClient(ctx, event.ClientID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			metrics.IngestFailures.WithLabelValues("unknown_client").Inc()
			return nil, fmt.Errorf("client %d: %w", event.ClientID, err)
		}
		metrics.IngestFailures.WithLabelValues("store").Inc()
		return nil, fmt.Errorf("failed to resolve client: %w", err)
	}

	decision := policy.Decide(event)
	alert := &models.Alert{
		ClientID:     event.ClientID,
		Severity:     event.Severity,
		IncidentType: event.IncidentType,
		Title:        event.Title,
		RawEvent:     event.Payload(),
	}

	var opened *models.Case
	start := time.Now()
	err := s.repo.WithTx(ctx, func(tx repository.Tx) error {
		opened = nil
		if err := tx.CreateAlert(ctx, alert); err != nil {
			return fmt.Errorf("failed to create alert: %w", err)
		}
		if !decision.Escalate {
			return nil
		}

		c := decision.Case
		c.ClientID = alert.ClientID
		c.Tasks = make([]*models.Task, 0, len(decision.Tasks))
		for _, title := range decision.Tasks {
			c.Tasks = append(c.Tasks, &models.Task{Title: title})
		}
		if err := tx.CreateCase(ctx, c); err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}
		opened = c
		return nil
	})
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IngestFailures.WithLabelValues("store").Inc()
		s.logger.ErrorContext(ctx, "ingestion transaction failed",
			logging.ClientID(event.ClientID),
			logging.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	s.afterIngest(ctx, alert, opened, source)

	result := &IngestResult{AlertID: alert.ID}
	if opened != nil {
		id := opened.ID
		result.CaseID = &id
	}
	return result, nil
}

// afterIngest runs once the write set is durable. Failures here are logged
// and never reach the caller.
func (s *TriageService) afterIngest(ctx context.Context, alert *models.Alert, c *models.Case, source string) {
	metrics.AlertsIngested.WithLabelValues(string(alert.Severity), source).Inc()
	if c != nil {
		metrics.CasesOpened.WithLabelValues(string(c.Severity), source).Inc()
	}

	s.broadcast.Publish(ctx, broadcast.IngestNotification(alert, c))

	if err := s.events.PublishAlertCreated(ctx, &events.AlertCreatedEvent{
		AlertID:      alert.ID,
		ClientID:     alert.ClientID,
		Severity:     string(alert.Severity),
		IncidentType: string(alert.IncidentType),
		Title:        alert.Title,
		Source:       source,
		CreatedAt:    alert.CreatedAt,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish alert event", logging.AlertID(alert.ID), logging.Error(err))
	}

	if c == nil {
		s.logger.DebugContext(ctx, "alert ingested",
			logging.AlertID(alert.ID),
			logging.Severity(string(alert.Severity)))
		return
	}

	if err := s.events.PublishCaseCreated(ctx, &events.CaseCreatedEvent{
		CaseID:       c.ID,
		AlertID:      alert.ID,
		ClientID:     c.ClientID,
		Severity:     string(c.Severity),
		IncidentType: string(c.IncidentType),
		Title:        c.Title,
		TaskCount:    len(c.Tasks),
		Source:       source,
		CreatedAt:    c.CreatedAt,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish case event", logging.CaseID(c.ID), logging.Error(err))
	}

	s.logger.InfoContext(ctx, "case opened",
		logging.AlertID(alert.ID),
		logging.CaseID(c.ID),
		logging.Severity(string(c.Severity)),
		logging.IncidentType(string(c.IncidentType)))
}
