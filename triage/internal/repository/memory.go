package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// InMemoryRepository keeps everything in maps behind one RWMutex. A
// transaction holds the write lock for its whole duration and stages its
// writes until fn succeeds.
type InMemoryRepository struct {
	mu         sync.RWMutex
	seq        map[string]int64
	clients    map[int64]*models.Client
	employees  map[int64]*models.Employee
	rules      map[int64]*models.Rule
	alerts     map[int64]*models.Alert
	cases      map[int64]*models.Case
	tasks      map[int64]*models.Task
	dispatches map[int64]*models.Dispatch
	audit      []*models.AuditLogEntry
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		seq:        make(map[string]int64),
		clients:    make(map[int64]*models.Client),
		employees:  make(map[int64]*models.Employee),
		rules:      make(map[int64]*models.Rule),
		alerts:     make(map[int64]*models.Alert),
		cases:      make(map[int64]*models.Case),
		tasks:      make(map[int64]*models.Task),
		dispatches: make(map[int64]*models.Dispatch),
	}
}

func (r *InMemoryRepository) Ping(ctx context.Context) error { return ctx.Err() }
func (r *InMemoryRepository) Close() error                   { return nil }

// nextID must be called with the write lock held.
func (r *InMemoryRepository) nextID(table string) int64 {
	r.seq[table]++
	return r.seq[table]
}

// =============================================================================
// Transactions
// =============================================================================

type memTx struct {
	repo   *InMemoryRepository
	alerts []*models.Alert
	cases  []*models.Case
	tasks  []*models.Task
}

func (r *InMemoryRepository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx{repo: r}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, a := range tx.alerts {
		r.alerts[a.ID] = a
	}
	for _, c := range tx.cases {
		r.cases[c.ID] = c
	}
	for _, t := range tx.tasks {
		r.tasks[t.ID] = t
	}
	return nil
}

func (tx *memTx) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if _, ok := tx.repo.clients[alert.ClientID]; !ok {
		return ErrClientNotFound
	}
	alert.ID = tx.repo.nextID("alerts")
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	tx.alerts = append(tx.alerts, cloneAlert(alert))
	return nil
}

func (tx *memTx) CreateCase(ctx context.Context, c *models.Case) error {
	if _, ok := tx.repo.clients[c.ClientID]; !ok {
		return ErrClientNotFound
	}
	for _, t := range c.Tasks {
		if t.Title == "" {
			return ErrEmptyTaskTitle
		}
	}
	c.ApplyDefaults()
	c.ID = tx.repo.nextID("cases")
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = c.CreatedAt
	for _, t := range c.Tasks {
		t.ID = tx.repo.nextID("tasks")
		t.CaseID = c.ID
		tx.tasks = append(tx.tasks, cloneTask(t))
	}
	tx.cases = append(tx.cases, cloneCase(c))
	return nil
}

// =============================================================================
// Clients, employees and rules
// =============================================================================

func (r *InMemoryRepository) CreateClient(ctx context.Context, client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.clients {
		if existing.Name == client.Name {
			return ErrClientExists
		}
	}
	client.ApplySLADefaults()
	client.ID = r.nextID("clients")
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}
	c := *client
	r.clients[c.ID] = &c
	return nil
}

func (r *InMemoryRepository) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	out := *c
	return &out, nil
}

func (r *InMemoryRepository) GetClientByName(ctx context.Context, name string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		if c.Name == name {
			out := *c
			return &out, nil
		}
	}
	return nil, ErrClientNotFound
}

func (r *InMemoryRepository) ListClients(ctx context.Context) ([]*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Client, 0, len(r.clients))
	for _, c := range r.clients {
		cp := *c
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Client) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r *InMemoryRepository) FirstClient(ctx context.Context) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var first *models.Client
	for _, c := range r.clients {
		if first == nil || c.ID < first.ID {
			first = c
		}
	}
	if first == nil {
		return nil, ErrClientNotFound
	}
	out := *first
	return &out, nil
}

func (r *InMemoryRepository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[employee.ClientID]; !ok {
		return ErrClientNotFound
	}
	if employee.Role == "" {
		employee.Role = models.DefaultEmployeeRole
	}
	employee.ID = r.nextID("employees")
	e := *employee
	r.employees[e.ID] = &e
	return nil
}

func (r *InMemoryRepository) ListEmployees(ctx context.Context, clientID int64) ([]*models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Employee, 0)
	for _, e := range r.employees {
		if clientID != 0 && e.ClientID != clientID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Employee) int {
		return cmp.Or(cmp.Compare(a.FullName, b.FullName), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r *InMemoryRepository) CreateRule(ctx context.Context, rule *models.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule.ID = r.nextID("rules")
	cp := *rule
	r.rules[cp.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListRules(ctx context.Context, enabledOnly bool) ([]*models.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if enabledOnly && !rule.Enabled {
			continue
		}
		cp := *rule
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Rule) int {
		return cmp.Or(
			cmp.Compare(a.IncidentType, b.IncidentType),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

// =============================================================================
// Alerts
// =============================================================================

func (r *InMemoryRepository) GetAlert(ctx context.Context, id int64) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.alerts[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	return cloneAlert(a), nil
}

func (r *InMemoryRepository) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Alert, 0)
	for _, a := range r.alerts {
		if filter.ClientID != 0 && a.ClientID != filter.ClientID {
			continue
		}
		if filter.IncidentType != "" && a.IncidentType != filter.IncidentType {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if !filter.Since.IsZero() && a.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, cloneAlert(a))
	}
	slices.SortFunc(out, newestAlertFirst)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *InMemoryRepository) SetAlertFalsePositive(ctx context.Context, id int64, falsePositive bool) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.alerts[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	a.IsFalsePositive = falsePositive
	return cloneAlert(a), nil
}

// =============================================================================
// Cases and tasks
// =============================================================================

func (r *InMemoryRepository) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	out := cloneCase(c)
	out.Tasks = r.caseTasks(id)
	return out, nil
}

// caseTasks must be called with the lock held.
func (r *InMemoryRepository) caseTasks(caseID int64) []*models.Task {
	tasks := make([]*models.Task, 0)
	for _, t := range r.tasks {
		if t.CaseID == caseID {
			tasks = append(tasks, cloneTask(t))
		}
	}
	slices.SortFunc(tasks, func(a, b *models.Task) int { return cmp.Compare(a.ID, b.ID) })
	return tasks
}

func (r *InMemoryRepository) ListCases(ctx context.Context, filter models.CaseFilter) ([]*models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Case, 0)
	for _, c := range r.cases {
		if filter.ClientID != 0 && c.ClientID != filter.ClientID {
			continue
		}
		if filter.IncidentType != "" && c.IncidentType != filter.IncidentType {
			continue
		}
		if filter.Severity != "" && c.Severity != filter.Severity {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Verdict != "" && c.Verdict != filter.Verdict {
			continue
		}
		if !filter.Since.IsZero() && c.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, cloneCase(c))
	}
	slices.SortFunc(out, newestCaseFirst)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *InMemoryRepository) UpdateCase(ctx context.Context, id int64, patch models.CasePatch) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.Verdict != nil {
		c.Verdict = *patch.Verdict
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.AnalystName != nil {
		c.AnalystName = *patch.AnalystName
	}
	if patch.AnalystGroup != nil {
		c.AnalystGroup = *patch.AnalystGroup
	}
	c.UpdatedAt = time.Now()

	out := cloneCase(c)
	out.Tasks = r.caseTasks(id)
	return out, nil
}

func (r *InMemoryRepository) AddTask(ctx context.Context, caseID int64, title string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cases[caseID]; !ok {
		return nil, ErrCaseNotFound
	}
	if title == "" {
		return nil, ErrEmptyTaskTitle
	}
	t := &models.Task{ID: r.nextID("tasks"), CaseID: caseID, Title: title}
	r.tasks[t.ID] = t
	return cloneTask(t), nil
}

func (r *InMemoryRepository) ToggleTask(ctx context.Context, caseID, taskID int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok || t.CaseID != caseID {
		return nil, ErrTaskNotFound
	}
	t.Done = !t.Done
	return cloneTask(t), nil
}

// =============================================================================
// Dispatches and audit log
// =============================================================================

func (r *InMemoryRepository) CreateDispatch(ctx context.Context, dispatch *models.Dispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cases[dispatch.CaseID]; !ok {
		return ErrCaseNotFound
	}
	dispatch.ID = r.nextID("dispatches")
	if dispatch.SentAt.IsZero() {
		dispatch.SentAt = time.Now()
	}
	d := *dispatch
	d.Recipients = slices.Clone(dispatch.Recipients)
	r.dispatches[d.ID] = &d
	return nil
}

func (r *InMemoryRepository) ListDispatches(ctx context.Context, caseID int64) ([]*models.Dispatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Dispatch, 0)
	for _, d := range r.dispatches {
		if d.CaseID != caseID {
			continue
		}
		cp := *d
		cp.Recipients = slices.Clone(d.Recipients)
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Dispatch) int {
		return cmp.Or(b.SentAt.Compare(a.SentAt), cmp.Compare(b.ID, a.ID))
	})
	return out, nil
}

func (r *InMemoryRepository) LogAudit(ctx context.Context, entry *models.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Actor == "" {
		entry.Actor = models.DefaultAuditActor
	}
	entry.ID = r.nextID("audit_log")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	e := *entry
	e.Details = maps.Clone(entry.Details)
	r.audit = append(r.audit, &e)
	return nil
}

func (r *InMemoryRepository) ListAuditLog(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.AuditLogEntry, 0, len(r.audit))
	for i := len(r.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		e := *r.audit[i]
		e.Details = maps.Clone(r.audit[i].Details)
		out = append(out, &e)
	}
	return out, nil
}

// =============================================================================
// Dashboard snapshot
// =============================================================================

func (r *InMemoryRepository) ActivitySince(ctx context.Context, since time.Time, clientID int64) (*models.ActivitySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := &models.ActivitySnapshot{
		Alerts: make([]*models.Alert, 0),
		Cases:  make([]*models.Case, 0),
	}
	for _, a := range r.alerts {
		if a.CreatedAt.Before(since) || (clientID != 0 && a.ClientID != clientID) {
			continue
		}
		snap.Alerts = append(snap.Alerts, cloneAlert(a))
	}
	for _, c := range r.cases {
		if c.CreatedAt.Before(since) || (clientID != 0 && c.ClientID != clientID) {
			continue
		}
		snap.Cases = append(snap.Cases, cloneCase(c))
	}
	slices.SortFunc(snap.Alerts, newestAlertFirst)
	slices.SortFunc(snap.Cases, func(a, b *models.Case) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return snap, nil
}

// =============================================================================
// Helpers
// =============================================================================

func newestAlertFirst(a, b *models.Alert) int {
	return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
}

func newestCaseFirst(a, b *models.Case) int {
	return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
}

func cloneAlert(a *models.Alert) *models.Alert {
	out := *a
	out.RawEvent = maps.Clone(a.RawEvent)
	return &out
}

func cloneCase(c *models.Case) *models.Case {
	out := *c
	out.Evidence = maps.Clone(c.Evidence)
	out.Tasks = nil
	return &out
}

func cloneTask(t *models.Task) *models.Task {
	out := *t
	return &out
}
