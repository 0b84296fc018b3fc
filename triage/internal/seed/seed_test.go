package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryRepository()

	res, err := Run(ctx, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Clients)
	assert.Equal(t, 5, res.Employees)
	assert.Equal(t, 5, res.Rules)

	client, err := repo.GetClient(ctx, res.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "Aster Bank", client.Name)
	assert.Equal(t, 60, client.SLACriticalMinutes)
	assert.Equal(t, 1440, client.SLALowMinutes)

	employees, err := repo.ListEmployees(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, employees, 5)
	assert.Equal(t, "Amina R.", employees[0].FullName)
	assert.Equal(t, "@amina_appsec", employees[0].TelegramHandle)

	rules, err := repo.ListRules(ctx, true)
	require.NoError(t, err)
	require.Len(t, rules, 5)
	assert.Equal(t, models.IncidentBruteForce, rules[0].IncidentType)
	assert.Equal(t, models.SeverityHigh, rules[0].Severity)
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryRepository()

	first, err := Run(ctx, repo, nil)
	require.NoError(t, err)

	second, err := Run(ctx, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ClientID, second.ClientID)
	assert.Zero(t, second.Clients)
	assert.Zero(t, second.Employees)
	assert.Zero(t, second.Rules)

	clients, err := repo.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)
	rules, err := repo.ListRules(ctx, false)
	require.NoError(t, err)
	assert.Len(t, rules, 5)
}

func TestRun_FillsGaps(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryRepository()

	client := &models.Client{Name: "Aster Bank", SLACriticalMinutes: 30}
	require.NoError(t, repo.CreateClient(ctx, client))
	require.NoError(t, repo.CreateEmployee(ctx, &models.Employee{ClientID: client.ID, FullName: "Timur S."}))
	require.NoError(t, repo.CreateRule(ctx, &models.Rule{Name: "XSS detection", IncidentType: models.IncidentXSS, Severity: models.SeverityLow}))

	res, err := Run(ctx, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, client.ID, res.ClientID)
	assert.Zero(t, res.Clients)
	assert.Equal(t, 4, res.Employees)
	assert.Equal(t, 4, res.Rules)

	// Existing records keep their values.
	got, err := repo.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.SLACriticalMinutes)

	rules, err := repo.ListRules(ctx, true)
	require.NoError(t, err)
	assert.Len(t, rules, 4)
}
