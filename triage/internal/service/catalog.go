package service

import (
	"context"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// ListAlerts returns alerts newest first.
func (s *TriageService) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	return s.repo.ListAlerts(ctx, filter)
}

// SetAlertFalsePositive flags or unflags an alert.
func (s *TriageService) SetAlertFalsePositive(ctx context.Context, id int64, falsePositive bool) (*models.Alert, error) {
	alert, err := s.repo.SetAlertFalsePositive(ctx, id, falsePositive)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "alert.false_positive", "alert", id, map[string]any{"is_false_positive": falsePositive})
	return alert, nil
}

// ListRules returns enabled rules ordered by incident type.
func (s *TriageService) ListRules(ctx context.Context) ([]*models.Rule, error) {
	return s.repo.ListRules(ctx, true)
}

// ListClients returns clients ordered by name.
func (s *TriageService) ListClients(ctx context.Context) ([]*models.Client, error) {
	return s.repo.ListClients(ctx)
}

// GetClient returns one client.
func (s *TriageService) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	return s.repo.GetClient(ctx, id)
}

// ListEmployees returns employees ordered by name. clientID 0 lists all.
func (s *TriageService) ListEmployees(ctx context.Context, clientID int64) ([]*models.Employee, error) {
	return s.repo.ListEmployees(ctx, clientID)
}
