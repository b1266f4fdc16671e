// Package cmd - contract valuation command
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	adapter "usage-pricing/adapters/cli"
)

var valueCmd = &cobra.Command{
	Use:   "value <schedule.json>",
	Short: "Value a contract pricing schedule",
	Long: `Sum the components of a JSON pricing schedule (basePricing,
assetTypePricing, telecomPricing, hardwarePricing, compliancePricing,
perUnitPricing) into a contract value, with warnings for implausible or
excluded values. Use "-" to read the schedule from stdin.

Examples:
  usage-pricing value schedule.json
  cat schedule.json | usage-pricing value - --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapter(cmd, func(ctx context.Context, a *adapter.CLIAdapter) error {
			return a.Value(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(valueCmd)
}
