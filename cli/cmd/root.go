package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-soc/cli/internal/client"
	"github.com/telhawk-systems/telhawk-soc/cli/internal/config"
	"github.com/telhawk-systems/telhawk-soc/cli/pkg/output"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "thawk-soc",
	Short: "TelHawk SOC triage CLI",
	Long: `thawk-soc is the command-line companion of the TelHawk SOC triage service.

Drive the service with synthetic security events, check its health and
browse today's cases and dashboard from your terminal.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		output.Error("%v", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.thawk/soc.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use")
	rootCmd.PersistentFlags().String("api-url", "", "triage API base URL (overrides the profile)")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json, yaml")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// apiClient builds a triage client from --api-url or the selected profile.
func apiClient(cmd *cobra.Command) *client.Client {
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		return client.New(u)
	}
	profile, _ := cmd.Flags().GetString("profile")
	return client.New(cfg.APIURL(profile))
}

// render writes v as JSON or YAML, or calls table for the table format.
func render(cmd *cobra.Command, v any, table func()) error {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "json":
		return output.JSON(v)
	case "yaml":
		return output.YAML(v)
	case "table", "":
		table()
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
