// Package seed loads the demo tenant, its contacts and the detection rule
// catalogue. Running it repeatedly leaves the store unchanged.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
)

// DemoClient is the tenant created by Run.
var DemoClient = models.Client{
	Name:               "Aster Bank",
	SLACriticalMinutes: 60,
	SLAHighMinutes:     240,
	SLAMediumMinutes:   480,
	SLALowMinutes:      1440,
}

// DemoEmployees are the responsible people at DemoClient.
var DemoEmployees = []models.Employee{
	{FullName: "Aruzhan K.", Email: "aruzhan@asterbank.local", TelegramHandle: "@aruzhan_soc", Role: "Client Owner"},
	{FullName: "Timur S.", Email: "timur@asterbank.local", TelegramHandle: "@timur_ir", Role: "IR Lead"},
	{FullName: "Dana M.", Email: "dana@asterbank.local", TelegramHandle: "@dana_blue", Role: "SOC L2"},
	{FullName: "Nursultan A.", Email: "nursultan@asterbank.local", TelegramHandle: "@nursultan_net", Role: "Network Eng"},
	{FullName: "Amina R.", Email: "amina@asterbank.local", TelegramHandle: "@amina_appsec", Role: "AppSec"},
}

// DemoRules is the detection rule catalogue.
var DemoRules = []models.Rule{
	{
		Name:          "Brute-force detection",
		IncidentType:  models.IncidentBruteForce,
		Severity:      models.SeverityHigh,
		QueryTemplate: "auth.failed | where src_ip == <IP> and attempts > 20 | last 1h",
		ResponseSteps: "1) Check false positive (scanner/VPN).\n" +
			"2) Search auth.success after failures.\n" +
			"3) Block IP if malicious.\n" +
			"4) Force MFA/password reset.\n" +
			"SLA: High 1-4h, Critical 15-60m.",
		Enabled: true,
	},
	{
		Name:          "SQL injection detection",
		IncidentType:  models.IncidentSQLInjection,
		Severity:      models.SeverityCritical,
		QueryTemplate: `web.access | where url contains "UNION" or url contains "' OR '1'='1" | last 24h`,
		ResponseSteps: "1) Confirm if request reached DB.\n" +
			"2) Check WAF action.\n" +
			"3) Patch parameterized queries.\n" +
			"4) Add WAF rule.\n" +
			"SLA: Critical 15-60m.",
		Enabled: true,
	},
	{
		Name:          "XSS detection",
		IncidentType:  models.IncidentXSS,
		Severity:      models.SeverityMedium,
		QueryTemplate: `web.access | where url contains "<script" or url contains "onerror=" | last 24h`,
		ResponseSteps: "1) Check reflected vs stored.\n" +
			"2) Validate sanitization + CSP.\n" +
			"3) Patch encoding.\n" +
			"SLA: Medium 4-8h.",
		Enabled: true,
	},
	{
		Name:          "Path traversal detection",
		IncidentType:  models.IncidentPathTraversal,
		Severity:      models.SeverityCritical,
		QueryTemplate: `web.access | where url contains "../" or url contains "%2e%2e%2f" | last 24h`,
		ResponseSteps: "1) Confirm access to sensitive files.\n" +
			"2) Patch allow-list path validation.\n" +
			"3) Block IP.\n" +
			"SLA: Critical 15-60m.",
		Enabled: true,
	},
	{
		Name:          "Suspicious Windows service install",
		IncidentType:  models.IncidentSuspiciousService,
		Severity:      models.SeverityHigh,
		QueryTemplate: `windows.service_install | where service_path contains "ProgramData" | last 24h`,
		ResponseSteps: "1) Verify signature + hash.\n" +
			"2) Check persistence.\n" +
			"3) Isolate host if malicious.\n" +
			"SLA: High 1-4h.",
		Enabled: true,
	},
}

// Result counts what Run created. Records that already existed are not counted.
type Result struct {
	ClientID  int64
	Clients   int
	Employees int
	Rules     int
}

// Run creates the demo client, employees and rules that are missing.
// Clients and rules are matched by name, employees by client and full name.
func Run(ctx context.Context, repo repository.Repository, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := &Result{}

	client, err := repo.GetClientByName(ctx, DemoClient.Name)
	switch {
	case errors.Is(err, repository.ErrClientNotFound):
		c := DemoClient
		if err := repo.CreateClient(ctx, &c); err != nil {
			return nil, fmt.Errorf("failed to create client %q: %w", c.Name, err)
		}
		client = &c
		res.Clients++
	case err != nil:
		return nil, fmt.Errorf("failed to look up client %q: %w", DemoClient.Name, err)
	}
	res.ClientID = client.ID

	existing, err := repo.ListEmployees(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[e.FullName] = true
	}
	for _, e := range DemoEmployees {
		if known[e.FullName] {
			continue
		}
		e.ClientID = client.ID
		if err := repo.CreateEmployee(ctx, &e); err != nil {
			return nil, fmt.Errorf("failed to create employee %q: %w", e.FullName, err)
		}
		res.Employees++
	}

	rules, err := repo.ListRules(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	known = make(map[string]bool, len(rules))
	for _, r := range rules {
		known[r.Name] = true
	}
	for _, r := range DemoRules {
		if known[r.Name] {
			continue
		}
		if err := repo.CreateRule(ctx, &r); err != nil {
			return nil, fmt.Errorf("failed to create rule %q: %w", r.Name, err)
		}
		res.Rules++
	}

	logger.InfoContext(ctx, "seeded demo data",
		slog.Int64("client_id", res.ClientID),
		slog.Int("clients", res.Clients),
		slog.Int("employees", res.Employees),
		slog.Int("rules", res.Rules))
	return res, nil
}
