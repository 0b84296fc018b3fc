package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-soc/cli/internal/client"
	"github.com/telhawk-systems/telhawk-soc/cli/pkg/output"
)

var casesQuery client.CaseQuery

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Case commands",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases, newest first",
	Example: `  thawk-soc cases list --today
  thawk-soc cases list --severity CRITICAL --status OPEN --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := apiClient(cmd).ListCases(cmd.Context(), casesQuery)
		if err != nil {
			return err
		}
		return render(cmd, cases, func() {
			if len(cases) == 0 {
				output.Info("No cases found")
				return
			}
			table := output.NewTable([]string{"ID", "CREATED", "SEVERITY", "STATUS", "INCIDENT TYPE", "ANALYST", "TITLE"})
			for _, c := range cases {
				table.AddRow([]string{
					strconv.FormatInt(c.ID, 10),
					c.CreatedAt.Local().Format("15:04:05"),
					output.Severity(c.Severity),
					c.Status,
					c.IncidentType,
					c.AnalystName,
					c.Title,
				})
			}
			table.Render()
		})
	},
}

func init() {
	rootCmd.AddCommand(casesCmd)
	casesCmd.AddCommand(casesListCmd)

	f := casesListCmd.Flags()
	f.Int64Var(&casesQuery.ClientID, "client", 0, "filter by client id")
	f.StringVar(&casesQuery.Severity, "severity", "", "filter by severity")
	f.StringVar(&casesQuery.Status, "status", "", "filter by status")
	f.StringVar(&casesQuery.IncidentType, "incident-type", "", "filter by incident type")
	f.BoolVar(&casesQuery.Today, "today", false, "only cases opened since local midnight")
	f.IntVar(&casesQuery.Limit, "limit", 50, "maximum number of cases")
}
