package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// ReportColumns is the header row of the daily case report.
var ReportColumns = []string{
	"case_id", "created_at", "client", "severity", "incident_type",
	"status", "verdict", "title", "source_ip", "host_ip", "hostname",
}

// StartOfToday returns local midnight in the service timezone.
func (s *TriageService) StartOfToday() time.Time {
	return models.StartOfDay(s.now().In(s.loc))
}

// ExportTodayCases writes every case created since local midnight as CSV,
// newest first.
func (s *TriageService) ExportTodayCases(ctx context.Context, w io.Writer) error {
	cases, err := s.repo.ListCases(ctx, models.CaseFilter{Since: s.StartOfToday()})
	if err != nil {
		return err
	}
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ReportColumns); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, c := range cases {
		record := []string{
			strconv.FormatInt(c.ID, 10),
			c.CreatedAt.In(s.loc).Format(time.RFC3339),
			names[c.ClientID],
			string(c.Severity),
			string(c.IncidentType),
			string(c.Status),
			string(c.Verdict),
			c.Title,
			c.SourceIP,
			c.HostIP,
			c.Hostname,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write case %d: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
