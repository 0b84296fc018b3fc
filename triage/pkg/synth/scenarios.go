package synth

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// Scenario describes one kind of attack the driver can simulate.
type Scenario struct {
	IncidentType models.IncidentType
	Title        string
	CaseTitle    string
	Tasks        []string

	// AlwaysCase forces a case regardless of severity. Otherwise a case is
	// forced only for escalating severities.
	AlwaysCase bool

	// Extra adds incident specific fields.
	Extra func(f *gofakeit.Faker, now time.Time) map[string]any
}

// Scenarios is the driver's incident catalogue.
var Scenarios = []Scenario{
	{
		IncidentType: models.IncidentBruteForce,
		Title:        "Possible Brute-Force",
		CaseTitle:    "Brute-force login attempts",
		Tasks: []string{
			"Check if source IP is known/allowed",
			"Validate authentication logs for the username",
			"Block IP on firewall/WAF (if confirmed)",
			"Check for successful login after attempts",
		},
		Extra: func(f *gofakeit.Faker, _ time.Time) map[string]any {
			return map[string]any{
				"username": f.RandomString([]string{"admin", "root", "svc_backup", f.Username()}),
				"attempts": f.Number(20, 120),
			}
		},
	},
	{
		IncidentType: models.IncidentSQLInjection,
		Title:        "SQL Injection attempt",
		CaseTitle:    "SQLi attempt on web endpoint",
		Tasks: []string{
			"Check WAF logs and web access logs",
			"Confirm if request reached database",
			"Search for similar payloads from source IP",
			"Add/adjust WAF rule if needed",
		},
		AlwaysCase: true,
		Extra: func(f *gofakeit.Faker, _ time.Time) map[string]any {
			return map[string]any{
				"url":        "/api/search?q=1%27%20OR%20%271%27=%271",
				"user_agent": f.UserAgent(),
			}
		},
	},
	{
		IncidentType: models.IncidentXSS,
		Title:        "XSS attempt detected",
		CaseTitle:    "Reflected XSS attempt",
		Tasks: []string{
			"Confirm if payload rendered in UI",
			"Check CSP headers and sanitization",
			"Search for repeated attempts",
		},
		Extra: func(f *gofakeit.Faker, _ time.Time) map[string]any {
			return map[string]any{
				"url":        "/comments?text=<script>alert(1)</script>",
				"user_agent": f.UserAgent(),
			}
		},
	},
	{
		IncidentType: models.IncidentPathTraversal,
		Title:        "Path Traversal attempt",
		CaseTitle:    "Path traversal attempt on server",
		Tasks: []string{
			"Check server file access logs",
			"Confirm if sensitive file was accessed",
			"Patch/validate path normalization",
		},
		AlwaysCase: true,
		Extra: func(_ *gofakeit.Faker, _ time.Time) map[string]any {
			return map[string]any{"url": "/download?file=../../../../etc/passwd"}
		},
	},
	{
		IncidentType: models.IncidentSuspiciousService,
		Title:        "Suspicious activity on the system (Windows)",
		CaseTitle:    "Suspicious Windows Service installed",
		Tasks: []string{
			"Verify service legitimacy and signature",
			"Check persistence mechanisms (registry/run keys)",
			"Isolate host if malicious indicators confirmed",
			"Collect triage artifacts (process tree, hashes)",
		},
		AlwaysCase: true,
		Extra: func(f *gofakeit.Faker, now time.Time) map[string]any {
			return map[string]any{
				"service_name":     f.RandomString([]string{"WinUpdateHelper", "SysDriverX", "TelemetrySvc"}),
				"service_path":     `C:\ProgramData\sys\svchost-helper.exe`,
				"event_start_date": now.Format(time.RFC3339),
			}
		},
	},
}

// Hostnames are the demo estate's machines.
var Hostnames = []string{"WIN-APP-01", "WEB-01", "DB-01", "AD-01"}

// Generator builds synthetic events. It is not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewGenerator returns a generator seeded with seed. Seed 0 draws a random
// seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed), now: time.Now}
}

// Faker exposes the underlying source of randomness.
func (g *Generator) Faker() *gofakeit.Faker { return g.faker }

// Event builds a driver event for clientID: a random scenario with a
// severity drawn from DriverWeights.
func (g *Generator) Event(clientID int64) map[string]any {
	f := g.faker
	now := g.now()
	s := Scenarios[f.Rand.Intn(len(Scenarios))]
	severity := DriverWeights.Pick(f.Rand)

	event := g.network()
	event["client_id"] = clientID
	event["incident_type"] = string(s.IncidentType)
	event["severity"] = string(severity)
	event["created_at"] = now.Format(time.RFC3339)
	event["title"] = s.Title
	event["case_title"] = s.CaseTitle
	event["tasks"] = append([]string(nil), s.Tasks...)
	event["force_case"] = s.AlwaysCase || severity.Escalates()
	if s.Extra != nil {
		for k, v := range s.Extra(f, now) {
			event[k] = v
		}
	}
	return event
}

// network returns the source, host and threat map fields every event carries.
func (g *Generator) network() map[string]any {
	f := g.faker
	return map[string]any{
		"source_ip":      fmt.Sprintf("185.10.%d.%d", f.Number(0, 255), f.Number(1, 254)),
		"host_ip":        fmt.Sprintf("10.5.%d.%d", f.Number(0, 10), f.Number(10, 200)),
		"hostname":       f.RandomString(Hostnames),
		"origin_zone":    f.Number(1, 5),
		"target_cluster": f.Number(1, 4),
	}
}

// BackgroundIncidents are the incident types the in-process feed emits.
var BackgroundIncidents = []models.IncidentType{
	models.IncidentBruteForce,
	models.IncidentSQLInjection,
	models.IncidentXSS,
	models.IncidentPathTraversal,
	models.IncidentWindowsService,
}

// Background is one in-process feed event.
type Background struct {
	Severity     models.Severity
	IncidentType models.IncidentType
	Title        string
	Raw          map[string]any
}

// Background draws an in-process feed event with InProcessWeights.
func (g *Generator) Background() Background {
	f := g.faker
	incident := BackgroundIncidents[f.Rand.Intn(len(BackgroundIncidents))]
	b := Background{
		Severity:     InProcessWeights.Pick(f.Rand),
		IncidentType: incident,
		Title:        DetectedTitle(incident),
		Raw:          g.network(),
	}
	b.Raw["severity"] = string(b.Severity)
	b.Raw["incident_type"] = string(b.IncidentType)
	b.Raw["title"] = b.Title
	return b
}

// Chance reports true with probability p.
func (g *Generator) Chance(p float64) bool {
	return g.faker.Rand.Float64() < p
}

// Delay draws a sleep from bands.
func (g *Generator) Delay(bands []Band) time.Duration {
	return RandomDelay(g.faker.Rand, bands)
}

// DetectedTitle renders an incident type as "Brute Force detected".
func DetectedTitle(t models.IncidentType) string {
	words := strings.Fields(strings.ReplaceAll(string(t), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ") + " detected"
}
