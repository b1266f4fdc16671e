// Package cmd - report and billing commands
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	adapter "usage-pricing/adapters/cli"
)

var reportOwner string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize an owner's usage",
	Long: `Summarize ledger usage for one owner by service type, call type and day.

Examples:
  usage-pricing report --owner acme --from 2026-01-01 --to 2026-01-31`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := adapter.ParsePeriod(periodFrom, periodTo)
		if err != nil {
			return err
		}
		return withAdapter(cmd, func(ctx context.Context, a *adapter.CLIAdapter) error {
			return a.Report(ctx, reportOwner, period)
		})
	},
}

var billCmd = &cobra.Command{
	Use:   "bill",
	Short: "Price a billing period for every contract",
	Long: `Run a billing sweep: every contract in --contract is an account whose
ledger owner is the contract id. Each statement carries rated usage, tiered
charges, overage and the total.

Examples:
  usage-pricing bill --contract contracts/ --from 2026-01-01 --to 2026-01-31 --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := adapter.ParsePeriod(periodFrom, periodTo)
		if err != nil {
			return err
		}
		return withAdapter(cmd, func(ctx context.Context, a *adapter.CLIAdapter) error {
			return a.Bill(ctx, contractPath, period)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(billCmd)

	reportCmd.Flags().StringVarP(&reportOwner, "owner", "o", "", "ledger owner [REQUIRED]")
	reportCmd.MarkFlagRequired("owner")

	billCmd.Flags().StringVarP(&contractPath, "contract", "c", "", "contract file or directory (HCL) [REQUIRED]")
	billCmd.MarkFlagRequired("contract")

	for _, c := range []*cobra.Command{reportCmd, billCmd} {
		c.Flags().StringVar(&periodFrom, "from", "", "period start (YYYY-MM-DD)")
		c.Flags().StringVar(&periodTo, "to", "", "period end, inclusive (YYYY-MM-DD)")
	}
}
