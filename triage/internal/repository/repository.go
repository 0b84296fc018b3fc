// Package repository persists triage records. PostgresRepository is the
// production store; InMemoryRepository backs development and tests with the
// same transactional behaviour.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrClientExists   = errors.New("client already exists")
	ErrAlertNotFound  = errors.New("alert not found")
	ErrCaseNotFound   = errors.New("case not found")
	ErrTaskNotFound   = errors.New("task not found")
	ErrEmptyTaskTitle = errors.New("task title is empty")
)

// Tx is the write surface available inside WithTx. Everything written
// through a Tx commits together or not at all.
type Tx interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error

	// CreateCase inserts the case and every entry of c.Tasks, filling IDs.
	CreateCase(ctx context.Context, c *models.Case) error
}

type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	// WithTx runs fn in a single transaction, committing if fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	GetClientByName(ctx context.Context, name string) (*models.Client, error)
	ListClients(ctx context.Context) ([]*models.Client, error)
	// FirstClient returns the client with the lowest id.
	FirstClient(ctx context.Context) (*models.Client, error)

	CreateEmployee(ctx context.Context, employee *models.Employee) error
	// ListEmployees returns employees ordered by name; clientID 0 lists all.
	ListEmployees(ctx context.Context, clientID int64) ([]*models.Employee, error)

	CreateRule(ctx context.Context, rule *models.Rule) error
	// ListRules returns rules ordered by incident type then name.
	ListRules(ctx context.Context, enabledOnly bool) ([]*models.Rule, error)

	GetAlert(ctx context.Context, id int64) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	SetAlertFalsePositive(ctx context.Context, id int64, falsePositive bool) (*models.Alert, error)

	// GetCase returns the case with its tasks.
	GetCase(ctx context.Context, id int64) (*models.Case, error)
	ListCases(ctx context.Context, filter models.CaseFilter) ([]*models.Case, error)
	// UpdateCase applies patch and refreshes updated_at.
	UpdateCase(ctx context.Context, id int64, patch models.CasePatch) (*models.Case, error)
	AddTask(ctx context.Context, caseID int64, title string) (*models.Task, error)
	ToggleTask(ctx context.Context, caseID, taskID int64) (*models.Task, error)

	CreateDispatch(ctx context.Context, dispatch *models.Dispatch) error
	ListDispatches(ctx context.Context, caseID int64) ([]*models.Dispatch, error)

	LogAudit(ctx context.Context, entry *models.AuditLogEntry) error
	ListAuditLog(ctx context.Context, limit int) ([]*models.AuditLogEntry, error)

	// ActivitySince returns a consistent snapshot of alerts and cases created
	// at or after since. clientID 0 includes every client.
	ActivitySince(ctx context.Context, since time.Time, clientID int64) (*models.ActivitySnapshot, error)
}
