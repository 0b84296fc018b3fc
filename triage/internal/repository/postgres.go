package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telhawk-systems/telhawk-soc/common/database"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to connString with the default pool sizing.
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	return NewPostgresRepositoryWithOptions(ctx, connString, database.DefaultPoolOptions())
}

func NewPostgresRepositoryWithOptions(ctx context.Context, connString string, opts database.PoolOptions) (*PostgresRepository, error) {
	pool, err := database.OpenPool(ctx, connString, opts)
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// nullTime lets the column default apply when t is unset.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func jsonObject(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// =============================================================================
// Transactions
// =============================================================================

type pgTx struct {
	tx pgx.Tx
}

func (r *PostgresRepository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *pgTx) CreateAlert(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (created_at, client_id, severity, incident_type, title, raw_event, is_false_positive)
		VALUES (COALESCE($1, NOW()), $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := t.tx.QueryRow(ctx, query,
		nullTime(alert.CreatedAt), alert.ClientID, alert.Severity, alert.IncidentType,
		alert.Title, jsonObject(alert.RawEvent), alert.IsFalsePositive,
	).Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (t *pgTx) CreateCase(ctx context.Context, c *models.Case) error {
	c.ApplyDefaults()

	query := `
		INSERT INTO cases (
			created_at, updated_at, client_id, severity, incident_type, status, verdict,
			title, description, analyst_name, analyst_group, source_ip, host_ip, hostname, evidence
		)
		VALUES (COALESCE($1, NOW()), COALESCE($1, NOW()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`
	err := t.tx.QueryRow(ctx, query,
		nullTime(c.CreatedAt), c.ClientID, c.Severity, c.IncidentType, c.Status, c.Verdict,
		c.Title, c.Description, c.AnalystName, c.AnalystGroup, c.SourceIP, c.HostIP, c.Hostname,
		jsonObject(c.Evidence),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to create case: %w", err)
	}

	for _, task := range c.Tasks {
		task.CaseID = c.ID
		err := t.tx.QueryRow(ctx,
			`INSERT INTO tasks (case_id, title, done) VALUES ($1, $2, $3) RETURNING id`,
			c.ID, task.Title, task.Done,
		).Scan(&task.ID)
		if err != nil {
			if isPgError(err, pgCheckViolation) {
				return ErrEmptyTaskTitle
			}
			return fmt.Errorf("failed to create task: %w", err)
		}
	}
	return nil
}

// =============================================================================
// Clients, employees and rules
// =============================================================================

const clientColumns = `id, name, sla_critical_minutes, sla_high_minutes, sla_medium_minutes, sla_low_minutes, created_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	c := &models.Client{}
	err := row.Scan(&c.ID, &c.Name, &c.SLACriticalMinutes, &c.SLAHighMinutes,
		&c.SLAMediumMinutes, &c.SLALowMinutes, &c.CreatedAt)
	return c, err
}

func (r *PostgresRepository) CreateClient(ctx context.Context, client *models.Client) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	client.ApplySLADefaults()
	query := `
		INSERT INTO clients (name, sla_critical_minutes, sla_high_minutes, sla_medium_minutes, sla_low_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, client.Name, client.SLACriticalMinutes,
		client.SLAHighMinutes, client.SLAMediumMinutes, client.SLALowMinutes,
	).Scan(&client.ID, &client.CreatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return ErrClientExists
		}
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getClientWhere(ctx context.Context, where string, arg any) (*models.Client, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s`, clientColumns, where)
	c, err := scanClient(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	return r.getClientWhere(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetClientByName(ctx context.Context, name string) (*models.Client, error) {
	return r.getClientWhere(ctx, "name = $1", name)
}

func (r *PostgresRepository) ListClients(ctx context.Context) ([]*models.Client, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM clients ORDER BY name, id`, clientColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *PostgresRepository) FirstClient(ctx context.Context) (*models.Client, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM clients ORDER BY id LIMIT 1`, clientColumns)
	c, err := scanClient(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get first client: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	if employee.Role == "" {
		employee.Role = models.DefaultEmployeeRole
	}
	query := `
		INSERT INTO employees (client_id, full_name, email, telegram_handle, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query, employee.ClientID, employee.FullName,
		employee.Email, employee.TelegramHandle, employee.Role,
	).Scan(&employee.ID)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListEmployees(ctx context.Context, clientID int64) ([]*models.Employee, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT id, client_id, full_name, email, telegram_handle, role
		FROM employees
		WHERE ($1::bigint = 0 OR client_id = $1::bigint)
		ORDER BY full_name, id
	`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []*models.Employee{}
	for rows.Next() {
		e := &models.Employee{}
		if err := rows.Scan(&e.ID, &e.ClientID, &e.FullName, &e.Email, &e.TelegramHandle, &e.Role); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *PostgresRepository) CreateRule(ctx context.Context, rule *models.Rule) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO rules (name, incident_type, severity, query_template, response_steps, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query, rule.Name, rule.IncidentType, rule.Severity,
		rule.QueryTemplate, rule.ResponseSteps, rule.Enabled,
	).Scan(&rule.ID)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRules(ctx context.Context, enabledOnly bool) ([]*models.Rule, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT id, name, incident_type, severity, query_template, response_steps, enabled
		FROM rules
		WHERE (NOT $1::boolean OR enabled)
		ORDER BY incident_type, name, id
	`
	rows, err := r.pool.Query(ctx, query, enabledOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	rules := []*models.Rule{}
	for rows.Next() {
		rule := &models.Rule{}
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.IncidentType, &rule.Severity,
			&rule.QueryTemplate, &rule.ResponseSteps, &rule.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// =============================================================================
// Alerts
// =============================================================================

const alertColumns = `id, created_at, client_id, severity, incident_type, title, raw_event, is_false_positive`

func scanAlert(row pgx.Row) (*models.Alert, error) {
	a := &models.Alert{}
	err := row.Scan(&a.ID, &a.CreatedAt, &a.ClientID, &a.Severity, &a.IncidentType,
		&a.Title, &a.RawEvent, &a.IsFalsePositive)
	return a, err
}

func (r *PostgresRepository) GetAlert(ctx context.Context, id int64) (*models.Alert, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	a, err := scanAlert(r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM alerts WHERE id = $1`, alertColumns), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

// whereBuilder accumulates AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *whereBuilder) limit(n int) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return fmt.Sprintf("LIMIT $%d", len(w.args))
}

func (r *PostgresRepository) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var w whereBuilder
	if filter.ClientID != 0 {
		w.add("client_id = $%d", filter.ClientID)
	}
	if filter.IncidentType != "" {
		w.add("incident_type = $%d", filter.IncidentType)
	}
	if filter.Severity != "" {
		w.add("severity = $%d", filter.Severity)
	}
	if !filter.Since.IsZero() {
		w.add("created_at >= $%d", filter.Since)
	}
	where := w.String()
	query := fmt.Sprintf(`SELECT %s FROM alerts %s ORDER BY created_at DESC, id DESC %s`,
		alertColumns, where, w.limit(filter.Limit))

	return r.queryAlerts(ctx, r.pool, query, w.args...)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PostgresRepository) queryAlerts(ctx context.Context, q querier, query string, args ...any) ([]*models.Alert, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *PostgresRepository) SetAlertFalsePositive(ctx context.Context, id int64, falsePositive bool) (*models.Alert, error) {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`UPDATE alerts SET is_false_positive = $1 WHERE id = $2 RETURNING %s`, alertColumns)
	a, err := scanAlert(r.pool.QueryRow(ctx, query, falsePositive, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return a, nil
}

// =============================================================================
// Cases and tasks
// =============================================================================

const caseColumns = `id, created_at, updated_at, client_id, severity, incident_type, status, verdict,
	title, description, analyst_name, analyst_group, source_ip, host_ip, hostname, evidence`

func scanCase(row pgx.Row) (*models.Case, error) {
	c := &models.Case{}
	err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.ClientID, &c.Severity, &c.IncidentType,
		&c.Status, &c.Verdict, &c.Title, &c.Description, &c.AnalystName, &c.AnalystGroup,
		&c.SourceIP, &c.HostIP, &c.Hostname, &c.Evidence)
	return c, err
}

func (r *PostgresRepository) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	c, err := scanCase(r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	if c.Tasks, err = r.listTasks(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) listTasks(ctx context.Context, caseID int64) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, case_id, title, done FROM tasks WHERE case_id = $1 ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t := &models.Task{}
		if err := rows.Scan(&t.ID, &t.CaseID, &t.Title, &t.Done); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *PostgresRepository) ListCases(ctx context.Context, filter models.CaseFilter) ([]*models.Case, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var w whereBuilder
	if filter.ClientID != 0 {
		w.add("client_id = $%d", filter.ClientID)
	}
	if filter.IncidentType != "" {
		w.add("incident_type = $%d", filter.IncidentType)
	}
	if filter.Severity != "" {
		w.add("severity = $%d", filter.Severity)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	if filter.Verdict != "" {
		w.add("verdict = $%d", filter.Verdict)
	}
	if !filter.Since.IsZero() {
		w.add("created_at >= $%d", filter.Since)
	}
	where := w.String()
	query := fmt.Sprintf(`SELECT %s FROM cases %s ORDER BY created_at DESC, id DESC %s`,
		caseColumns, where, w.limit(filter.Limit))

	return r.queryCases(ctx, r.pool, query, w.args...)
}

func (r *PostgresRepository) queryCases(ctx context.Context, q querier, query string, args ...any) ([]*models.Case, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	cases := []*models.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (r *PostgresRepository) UpdateCase(ctx context.Context, id int64, patch models.CasePatch) (*models.Case, error) {
	writeCtx, cancel := database.WriteContext(ctx)
	defer cancel()

	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Verdict != nil {
		set("verdict", *patch.Verdict)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.AnalystName != nil {
		set("analyst_name", *patch.AnalystName)
	}
	if patch.AnalystGroup != nil {
		set("analyst_group", *patch.AnalystGroup)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE cases SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), len(args))
	result, err := r.pool.Exec(writeCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrCaseNotFound
	}
	return r.GetCase(ctx, id)
}

func (r *PostgresRepository) AddTask(ctx context.Context, caseID int64, title string) (*models.Task, error) {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	t := &models.Task{CaseID: caseID, Title: title}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (case_id, title, done) VALUES ($1, $2, FALSE) RETURNING id`,
		caseID, title,
	).Scan(&t.ID)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return nil, ErrCaseNotFound
		}
		if isPgError(err, pgCheckViolation) {
			return nil, ErrEmptyTaskTitle
		}
		return nil, fmt.Errorf("failed to add task: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ToggleTask(ctx context.Context, caseID, taskID int64) (*models.Task, error) {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	t := &models.Task{}
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks SET done = NOT done
		WHERE id = $1 AND case_id = $2
		RETURNING id, case_id, title, done
	`, taskID, caseID).Scan(&t.ID, &t.CaseID, &t.Title, &t.Done)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}
	return t, nil
}

// =============================================================================
// Dispatches and audit log
// =============================================================================

func (r *PostgresRepository) CreateDispatch(ctx context.Context, dispatch *models.Dispatch) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	recipients := dispatch.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO dispatches (case_id, channel, recipients, sent_at)
		VALUES ($1, $2, $3, COALESCE($4, NOW()))
		RETURNING id, sent_at
	`, dispatch.CaseID, dispatch.Channel, recipients, nullTime(dispatch.SentAt),
	).Scan(&dispatch.ID, &dispatch.SentAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrCaseNotFound
		}
		return fmt.Errorf("failed to create dispatch: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListDispatches(ctx context.Context, caseID int64) ([]*models.Dispatch, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id, case_id, channel, recipients, sent_at
		FROM dispatches
		WHERE case_id = $1
		ORDER BY sent_at DESC, id DESC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	defer rows.Close()

	dispatches := []*models.Dispatch{}
	for rows.Next() {
		d := &models.Dispatch{}
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Channel, &d.Recipients, &d.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		dispatches = append(dispatches, d)
	}
	return dispatches, rows.Err()
}

func (r *PostgresRepository) LogAudit(ctx context.Context, entry *models.AuditLogEntry) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	if entry.Actor == "" {
		entry.Actor = models.DefaultAuditActor
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO audit_log (action, actor, object_type, object_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, entry.Action, entry.Actor, entry.ObjectType, entry.ObjectID, jsonObject(entry.Details),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListAuditLog(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at, action, actor, object_type, object_id, details
		FROM audit_log
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	entries := []*models.AuditLogEntry{}
	for rows.Next() {
		e := &models.AuditLogEntry{}
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Action, &e.Actor, &e.ObjectType, &e.ObjectID, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// Dashboard snapshot
// =============================================================================

// ActivitySince reads alerts and cases inside one REPEATABLE READ read-only
// transaction so both lists reflect the same instant.
func (r *PostgresRepository) ActivitySince(ctx context.Context, since time.Time, clientID int64) (*models.ActivitySnapshot, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	alerts, err := r.queryAlerts(ctx, tx, fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE created_at >= $1 AND ($2::bigint = 0 OR client_id = $2::bigint)
		ORDER BY created_at DESC, id DESC
	`, alertColumns), since, clientID)
	if err != nil {
		return nil, err
	}

	cases, err := r.queryCases(ctx, tx, fmt.Sprintf(`
		SELECT %s FROM cases
		WHERE created_at >= $1 AND ($2::bigint = 0 OR client_id = $2::bigint)
		ORDER BY created_at, id
	`, caseColumns), since, clientID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to close snapshot: %w", err)
	}
	return &models.ActivitySnapshot{Alerts: alerts, Cases: cases}, nil
}
