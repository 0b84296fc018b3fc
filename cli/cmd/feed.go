package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-soc/cli/internal/feeder"
	"github.com/telhawk-systems/telhawk-soc/cli/pkg/output"
	"github.com/telhawk-systems/telhawk-soc/common/logging"
	"github.com/telhawk-systems/telhawk-soc/triage/pkg/synth"
)

var (
	feedCfgFile  string
	feedURL      string
	feedClientID int64
	feedInterval time.Duration
	feedCount    int
	feedSeed     int64
	feedQuiet    bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Synthetic event feed commands",
	Long:  "Generate synthetic security events and post them to the triage ingestion API",
}

var feedRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Post synthetic events until stopped",
	Long: `Generate events and post them to the ingestion endpoint.

Configuration cascade (priority order):
  1. Command-line flags
  2. FEED_* environment variables
  3. ./feed.yaml (project directory)
  4. ~/.thawk/feed.yaml (user directory)
  5. Built-in defaults

Examples:
  # Post an event every 2 seconds for client 1
  thawk-soc feed run

  # Post 100 events as fast as the service answers
  thawk-soc feed run --count 100 --interval 0

  # Target another service
  thawk-soc feed run --url http://soc.internal:8000/api/ingest/ --client 3`,
	RunE: runFeed,
}

type scenarioView struct {
	IncidentType string   `json:"incident_type" yaml:"incident_type"`
	Title        string   `json:"title" yaml:"title"`
	CaseTitle    string   `json:"case_title" yaml:"case_title"`
	AlwaysCase   bool     `json:"always_case" yaml:"always_case"`
	Tasks        []string `json:"tasks" yaml:"tasks"`
}

func scenarioViews() []scenarioView {
	views := make([]scenarioView, 0, len(synth.Scenarios))
	for _, s := range synth.Scenarios {
		views = append(views, scenarioView{
			IncidentType: string(s.IncidentType),
			Title:        s.Title,
			CaseTitle:    s.CaseTitle,
			AlwaysCase:   s.AlwaysCase,
			Tasks:        s.Tasks,
		})
	}
	return views
}

var feedScenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the incident scenarios the feed generates",
	RunE: func(cmd *cobra.Command, args []string) error {
		views := scenarioViews()
		return render(cmd, views, func() {
			table := output.NewTable([]string{"INCIDENT TYPE", "ALERT TITLE", "CASE TITLE", "ALWAYS CASE", "TASKS"})
			for _, v := range views {
				always := "no"
				if v.AlwaysCase {
					always = "yes"
				}
				table.AddRow([]string{v.IncidentType, v.Title, v.CaseTitle, always, strings.Join(v.Tasks, "; ")})
			}
			table.Render()
		})
	},
}

var feedConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective feed configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := loadFeedConfig(cmd)
		if err != nil {
			return err
		}
		return output.YAML(fc)
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedRunCmd)
	feedCmd.AddCommand(feedScenariosCmd)
	feedCmd.AddCommand(feedConfigCmd)

	for _, c := range []*cobra.Command{feedRunCmd, feedConfigCmd} {
		c.Flags().StringVar(&feedCfgFile, "feed-config", "", "feed config file (default: ./feed.yaml or ~/.thawk/feed.yaml)")
		c.Flags().StringVar(&feedURL, "url", "", "ingestion endpoint URL")
		c.Flags().Int64Var(&feedClientID, "client", 0, "client id to attribute events to")
		c.Flags().DurationVar(&feedInterval, "interval", 0, "pause between events")
		c.Flags().IntVar(&feedCount, "count", 0, "number of events to send (0 = until stopped)")
		c.Flags().Int64Var(&feedSeed, "seed", 0, "random seed (0 = time based)")
	}
	feedRunCmd.Flags().BoolVarP(&feedQuiet, "quiet", "q", false, "do not print a line per event")
}

// loadFeedConfig applies explicitly set flags over the file and env cascade.
func loadFeedConfig(cmd *cobra.Command) (*feeder.Config, error) {
	fc, err := feeder.LoadConfig(feedCfgFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("url") {
		fc.Defaults.URL = feedURL
	}
	if flags.Changed("client") {
		fc.Defaults.ClientID = feedClientID
	}
	if flags.Changed("interval") {
		fc.Defaults.Interval = feedInterval
	}
	if flags.Changed("count") {
		fc.Defaults.Count = feedCount
	}
	if flags.Changed("seed") {
		fc.Defaults.Seed = feedSeed
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return fc, nil
}

func runFeed(cmd *cobra.Command, args []string) error {
	fc, err := loadFeedConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewWithWriter(os.Stderr, logging.ParseLevel("warn"), "text")
	runner := feeder.NewRunner(fc, logger.Logger)
	if !feedQuiet {
		runner.OnResult = printResult
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	output.Info("Posting events to %s (client %d, every %s)", fc.Defaults.URL, fc.Defaults.ClientID, fc.Defaults.Interval)
	stats := runner.Run(ctx)
	output.Success("Sent %d events, %d cases opened, %d failed", stats.Sent, stats.Cases, stats.Failed)
	return nil
}

func printResult(res feeder.Result) {
	severity, _ := res.Event["severity"].(string)
	title, _ := res.Event["title"].(string)
	if res.Err != nil {
		output.Warn("%s %s: %v", output.Severity(severity), title, res.Err)
		return
	}
	if res.CaseID != nil {
		output.Info("alert %d + case %d  %s %s", res.AlertID, *res.CaseID, output.Severity(severity), title)
		return
	}
	output.Info("alert %d  %s %s", res.AlertID, output.Severity(severity), title)
}
