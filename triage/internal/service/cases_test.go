package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
)

func (f *fixture) openCase(t *testing.T) int64 {
	t.Helper()
	result, err := f.svc.Ingest(f.context, f.event(t, "HIGH", `, "tasks": ["Block IP"]`))
	require.NoError(t, err)
	require.NotNil(t, result.CaseID)
	return *result.CaseID
}

func ptr[T any](v T) *T { return &v }

func TestDispatch(t *testing.T) {
	t.Run("records dispatch", func(t *testing.T) {
		f := newFixture(t)
		caseID := f.openCase(t)

		d, err := f.svc.Dispatch(f.context, caseID, models.ChannelTelegram, []string{"@timur_ir", "@dana_blue"})
		require.NoError(t, err)
		assert.Positive(t, d.ID)
		assert.False(t, d.SentAt.IsZero())

		dispatches, err := f.repo.ListDispatches(f.context, caseID)
		require.NoError(t, err)
		require.Len(t, dispatches, 1)
		assert.Equal(t, []string{"@timur_ir", "@dana_blue"}, dispatches[0].Recipients)
		assert.Equal(t, models.ChannelTelegram, dispatches[0].Channel)

		require.Len(t, f.events.dispatches, 1)
		assert.Equal(t, d.ID, f.events.dispatches[0].DispatchID)

		audit, err := f.repo.ListAuditLog(f.context, 1)
		require.NoError(t, err)
		require.Len(t, audit, 1)
		assert.Equal(t, "case.dispatch", audit[0].Action)
	})

	t.Run("nil recipients stored as empty list", func(t *testing.T) {
		f := newFixture(t)
		caseID := f.openCase(t)

		d, err := f.svc.Dispatch(f.context, caseID, models.ChannelSIEM, nil)
		require.NoError(t, err)
		assert.NotNil(t, d.Recipients)
		assert.Empty(t, d.Recipients)
	})

	t.Run("invalid channel writes nothing", func(t *testing.T) {
		f := newFixture(t)
		caseID := f.openCase(t)

		_, err := f.svc.Dispatch(f.context, caseID, models.DispatchChannel("EMAIL"), []string{"a@b.c"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Contains(t, err.Error(), "invalid channel")

		dispatches, err := f.repo.ListDispatches(f.context, caseID)
		require.NoError(t, err)
		assert.Empty(t, dispatches)
	})

	t.Run("invalid channel checked before case", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Dispatch(f.context, 404, models.DispatchChannel(""), nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("unknown case", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Dispatch(f.context, 404, models.ChannelSIEM, nil)
		assert.ErrorIs(t, err, repository.ErrCaseNotFound)
	})
}

func TestUpdateCase(t *testing.T) {
	tests := []struct {
		name    string
		steps   []models.CaseStatus
		wantErr bool
	}{
		{name: "open to in progress", steps: []models.CaseStatus{models.StatusInProgress}},
		{name: "full lifecycle", steps: []models.CaseStatus{models.StatusInProgress, models.StatusResolved}},
		{name: "same status", steps: []models.CaseStatus{models.StatusOpen}},
		{name: "skip to resolved", steps: []models.CaseStatus{models.StatusResolved}, wantErr: true},
		{name: "move backwards", steps: []models.CaseStatus{models.StatusInProgress, models.StatusOpen}, wantErr: true},
		{name: "unknown status", steps: []models.CaseStatus{"CLOSED"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			caseID := f.openCase(t)

			var err error
			for _, status := range tt.steps {
				_, err = f.svc.UpdateCase(f.context, caseID, models.CasePatch{Status: ptr(status)})
				if err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			c, err := f.repo.GetCase(f.context, caseID)
			require.NoError(t, err)
			assert.Equal(t, tt.steps[len(tt.steps)-1], c.Status)
		})
	}
}

func TestUpdateCase_Fields(t *testing.T) {
	f := newFixture(t)
	caseID := f.openCase(t)
	before, err := f.repo.GetCase(f.context, caseID)
	require.NoError(t, err)

	updated, err := f.svc.UpdateCase(f.context, caseID, models.CasePatch{
		Verdict:      ptr(models.VerdictTruePositive),
		AnalystName:  ptr("Dana M."),
		AnalystGroup: ptr("SOC L2"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.VerdictTruePositive, updated.Verdict)
	assert.Equal(t, "Dana M.", updated.AnalystName)
	assert.Equal(t, "SOC L2", updated.AnalystGroup)
	assert.Equal(t, before.Title, updated.Title)
	assert.False(t, updated.UpdatedAt.Before(before.UpdatedAt))

	audit, err := f.repo.ListAuditLog(f.context, 1)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "case.update", audit[0].Action)
	assert.Equal(t, "Dana M.", audit[0].Details["analyst_name"])
}

func TestUpdateCase_Rejections(t *testing.T) {
	f := newFixture(t)
	caseID := f.openCase(t)

	_, err := f.svc.UpdateCase(f.context, caseID, models.CasePatch{Verdict: ptr(models.Verdict("MAYBE"))})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.UpdateCase(f.context, caseID, models.CasePatch{Title: ptr("  ")})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.UpdateCase(f.context, 404, models.CasePatch{Title: ptr("x")})
	assert.ErrorIs(t, err, repository.ErrCaseNotFound)

	audit, err := f.repo.ListAuditLog(f.context, 0)
	require.NoError(t, err)
	assert.Empty(t, audit)
}

func TestTasks(t *testing.T) {
	f := newFixture(t)
	caseID := f.openCase(t)

	_, err := f.svc.AddTask(f.context, caseID, "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "title required")

	task, err := f.svc.AddTask(f.context, caseID, "  Collect memory dump ")
	require.NoError(t, err)
	assert.Equal(t, "Collect memory dump", task.Title)
	assert.False(t, task.Done)

	toggled, err := f.svc.ToggleTask(f.context, caseID, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Done)

	toggled, err = f.svc.ToggleTask(f.context, caseID, task.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Done)

	_, err = f.svc.ToggleTask(f.context, caseID+1, task.ID)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)

	_, err = f.svc.AddTask(f.context, 404, "orphan")
	assert.ErrorIs(t, err, repository.ErrCaseNotFound)

	c, err := f.repo.GetCase(f.context, caseID)
	require.NoError(t, err)
	assert.Len(t, c.Tasks, 2)
}

func TestGetCase_Detail(t *testing.T) {
	f := newFixture(t)
	caseID := f.openCase(t)
	_, err := f.svc.Dispatch(f.context, caseID, models.ChannelSIEM, []string{"siem-01"})
	require.NoError(t, err)

	detail, err := f.svc.GetCase(f.context, caseID)
	require.NoError(t, err)
	assert.Equal(t, caseID, detail.ID)
	assert.Equal(t, detail.CreatedAt.Add(240*time.Minute), detail.SLADueAt)
	assert.Len(t, detail.Dispatches, 1)
	assert.Len(t, detail.Tasks, 1)

	_, err = f.svc.GetCase(f.context, 404)
	assert.ErrorIs(t, err, repository.ErrCaseNotFound)
}

func TestSetAlertFalsePositive(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.Ingest(f.context, f.event(t, "LOW", ""))
	require.NoError(t, err)

	alert, err := f.svc.SetAlertFalsePositive(f.context, result.AlertID, true)
	require.NoError(t, err)
	assert.True(t, alert.IsFalsePositive)

	_, err = f.svc.SetAlertFalsePositive(f.context, 404, true)
	assert.ErrorIs(t, err, repository.ErrAlertNotFound)

	audit, err := f.svc.ListAuditLog(f.context, 10)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "alert.false_positive", audit[0].Action)
	assert.Equal(t, "alert", audit[0].ObjectType)
}

func TestExportTodayCases(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()
	client := &models.Client{Name: "Aster Bank"}
	require.NoError(t, repo.CreateClient(ctx, client))

	now := time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)
	svc := NewTriageService(repo, Options{Location: time.UTC, Now: func() time.Time { return now }})

	write := func(createdAt time.Time, title string) {
		require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
			return tx.CreateCase(ctx, &models.Case{
				ClientID:     client.ID,
				CreatedAt:    createdAt,
				Severity:     models.SeverityHigh,
				IncidentType: models.IncidentSQLInjection,
				Title:        title,
				SourceIP:     "185.10.1.2",
			})
		}))
	}
	write(now.Add(-24*time.Hour), "Yesterday")
	write(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), "Midnight")
	write(now.Add(-time.Hour), `Login "admin", bypass`)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportTodayCases(ctx, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ReportColumns, records[0])

	assert.Equal(t, `Login "admin", bypass`, records[1][7])
	assert.Equal(t, "Aster Bank", records[1][2])
	assert.Equal(t, "2026-10-19T14:30:00Z", records[1][1])
	assert.Equal(t, "OPEN", records[1][5])
	assert.Equal(t, "OTHER", records[1][6])
	assert.Equal(t, "185.10.1.2", records[1][8])
	assert.Equal(t, "Midnight", records[2][7])
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Health(f.context))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, f.svc.Health(ctx))
}
