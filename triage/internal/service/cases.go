package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-soc/common/logging"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// CaseDetail is a case with its dispatch history and SLA deadline.
type CaseDetail struct {
	*models.Case
	Tasks      []*models.Task     `json:"tasks"`
	SLADueAt   time.Time          `json:"sla_due_at"`
	Dispatches []*models.Dispatch `json:"dispatches"`
}

// GetCase returns the case with its tasks, dispatches and SLA deadline.
func (s *TriageService) GetCase(ctx context.Context, id int64) (*CaseDetail, error) {
	c, err := s.repo.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.GetClient(ctx, c.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client for case %d: %w", id, err)
	}
	dispatches, err := s.repo.ListDispatches(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks := c.Tasks
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return &CaseDetail{
		Case:       c,
		Tasks:      tasks,
		SLADueAt:   c.CreatedAt.Add(client.SLA(c.Severity)),
		Dispatches: dispatches,
	}, nil
}

// ListCases returns cases newest first.
func (s *TriageService) ListCases(ctx context.Context, filter models.CaseFilter) ([]*models.Case, error) {
	return s.repo.ListCases(ctx, filter)
}

// UpdateCase applies an analyst edit. Status may only move forward
// (OPEN, IN_PROGRESS, RESOLVED) and enum values must be known.
func (s *TriageService) UpdateCase(ctx context.Context, id int64, patch models.CasePatch) (*models.Case, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalidf("invalid status %q", *patch.Status)
	}
	if patch.Verdict != nil && !patch.Verdict.Valid() {
		return nil, invalidf("invalid verdict %q", *patch.Verdict)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalidf("title required")
	}

	current, err := s.repo.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}
	if patch.Status != nil && !current.Status.CanTransitionTo(*patch.Status) {
		return nil, invalidf("cannot move case from %s to %s", current.Status, *patch.Status)
	}

	updated, err := s.repo.UpdateCase(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "case.update", "case", id, patchDetails(patch))
	return updated, nil
}

func patchDetails(p models.CasePatch) map[string]any {
	details := make(map[string]any)
	if p.Status != nil {
		details["status"] = string(*p.Status)
	}
	if p.Verdict != nil {
		details["verdict"] = string(*p.Verdict)
	}
	if p.Title != nil {
		details["title"] = *p.Title
	}
	if p.Description != nil {
		details["description"] = *p.Description
	}
	if p.AnalystName != nil {
		details["analyst_name"] = *p.AnalystName
	}
	if p.AnalystGroup != nil {
		details["analyst_group"] = *p.AnalystGroup
	}
	return details
}

// AddTask appends a checklist item to a case.
func (s *TriageService) AddTask(ctx context.Context, caseID int64, title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalidf("title required")
	}
	task, err := s.repo.AddTask(ctx, caseID, title)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "task.add", "case", caseID, map[string]any{"task_id": task.ID, "title": task.Title})
	return task, nil
}

// ToggleTask flips a task between done and not done.
func (s *TriageService) ToggleTask(ctx context.Context, caseID, taskID int64) (*models.Task, error) {
	task, err := s.repo.ToggleTask(ctx, caseID, taskID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "task.toggle", "case", caseID, map[string]any{"task_id": task.ID, "done": task.Done})
	return task, nil
}

// audit records an action. Audit failures are logged, not returned.
func (s *TriageService) audit(ctx context.Context, action, objectType string, objectID int64, details map[string]any) {
	entry := &models.AuditLogEntry{
		Action:     action,
		Actor:      models.DefaultAuditActor,
		ObjectType: objectType,
		ObjectID:   strconv.FormatInt(objectID, 10),
		Details:    details,
	}
	if err := s.repo.LogAudit(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write audit log",
			"action", action,
			"object_id", entry.ObjectID,
			logging.Error(err))
	}
}

// ListAuditLog returns the most recent audit entries first.
func (s *TriageService) ListAuditLog(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	return s.repo.ListAuditLog(ctx, limit)
}
