// Package cmd provides the CLI commands for usage-pricing.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	adapter "usage-pricing/adapters/cli"
	"usage-pricing/core/output"
	"usage-pricing/internal/config"
	"usage-pricing/internal/logging"
)

var (
	cfgFile      string
	verbose      bool
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "usage-pricing",
	Short: "Price metered usage and value contracts",
	Long: `usage-pricing normalizes call-detail and manual usage into a ledger,
prices it with tiered and overage rules, and values contract pricing
schedules with plausibility warnings.

Examples:
  usage-pricing value schedule.json
  usage-pricing usage import calls.csv --owner acme --contract contracts.hcl
  usage-pricing bill --contract contracts.hcl --from 2026-01-01 --to 2026-01-31`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logging.Sync()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.usage-pricing.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json); default from config")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	// Initialize logging
	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// newAdapter builds the engine adapter from the loaded configuration
func newAdapter(cmd *cobra.Command) (*adapter.CLIAdapter, error) {
	cfg := config.Get()

	name := outputFormat
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	a := adapter.NewCLIAdapter(cfg)
	a.SetOutput(cmd.OutOrStdout())
	a.SetFormat(format)
	return a, nil
}

// withAdapter runs fn with an adapter and closes it afterwards
func withAdapter(cmd *cobra.Command, fn func(ctx context.Context, a *adapter.CLIAdapter) error) error {
	a, err := newAdapter(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
