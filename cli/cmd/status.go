package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-soc/cli/pkg/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check triage service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := apiClient(cmd).Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("service unreachable: %w", err)
		}
		return render(cmd, health, func() {
			output.Success("Service status: %s", health.Status)
			switch {
			case !health.Messaging.Enabled:
				output.Info("Messaging: disabled")
			case health.Messaging.Connected:
				output.Info("Messaging: connected")
			default:
				output.Warn("Messaging: %s", health.Messaging.Error)
			}
		})
	},
}

var dashboardClientID int64

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show today's dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := apiClient(cmd).Dashboard(cmd.Context(), dashboardClientID)
		if err != nil {
			return err
		}
		return render(cmd, stats, func() {
			output.Info("Alerts today: %d", stats.TotalAlertsToday)

			table := output.NewTable([]string{"SEVERITY", "PERCENT"})
			for _, sev := range []string{"CRITICAL", "HIGH", "MEDIUM", "LOW"} {
				table.AddRow([]string{output.Severity(sev), strconv.FormatFloat(stats.SeverityPercent[sev], 'f', 1, 64) + "%"})
			}
			table.Render()

			if len(stats.IncidentsToday) > 0 {
				fmt.Fprintln(output.Out)
				incidents := output.NewTable([]string{"INCIDENT TYPE", "ALERTS"})
				for _, ic := range stats.IncidentsToday {
					incidents.AddRow([]string{ic.IncidentType, strconv.Itoa(ic.Count)})
				}
				incidents.Render()
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().Int64Var(&dashboardClientID, "client", 0, "restrict to one client")
}
