// Package cmd - tiered and overage pricing commands
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	adapter "usage-pricing/adapters/cli"
)

var (
	contractPath string
	contractID   string
	tierService  string
	tierUsage    string
	overageUsage []string
	overageOwner string
	periodFrom   string
	periodTo     string
)

var tieredCmd = &cobra.Command{
	Use:   "tiered",
	Short: "Price a usage quantity against a contract's usage tiers",
	Long: `Apply the contract's pricing tiers for one service to a usage quantity,
showing how much usage fell in each tier.

Examples:
  usage-pricing tiered --contract contracts.hcl --id acme --service international --usage 250`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapter(cmd, func(ctx context.Context, a *adapter.CLIAdapter) error {
			return a.Tiered(ctx, adapter.TieredRequest{
				ContractPath: contractPath,
				ContractID:   contractID,
				Service:      tierService,
				Usage:        tierUsage,
			})
		})
	},
}

var overageCmd = &cobra.Command{
	Use:   "overage",
	Short: "Compute overage charges against a contract's allowances",
	Long: `Compare usage per service with the contract's monthly allowances.
Usage is given explicitly (--usage service=amount, repeatable) or summed
from the ledger of --owner over --from/--to.

Examples:
  usage-pricing overage --contract contracts.hcl --id acme --usage local=5000
  usage-pricing overage --contract contracts.hcl --id acme --owner acme --from 2026-01-01 --to 2026-01-31`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usage := make(map[string]string, len(overageUsage))
		for _, kv := range overageUsage {
			service, qty, ok := strings.Cut(kv, "=")
			if !ok || service == "" {
				return fmt.Errorf("invalid --usage %q (want service=amount)", kv)
			}
			usage[service] = qty
		}

		period, err := adapter.ParsePeriod(periodFrom, periodTo)
		if err != nil {
			return err
		}

		return withAdapter(cmd, func(ctx context.Context, a *adapter.CLIAdapter) error {
			return a.Overage(ctx, adapter.OverageRequest{
				ContractPath: contractPath,
				ContractID:   contractID,
				Usage:        usage,
				Owner:        overageOwner,
				Period:       period,
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(tieredCmd)
	rootCmd.AddCommand(overageCmd)

	for _, c := range []*cobra.Command{tieredCmd, overageCmd} {
		c.Flags().StringVarP(&contractPath, "contract", "c", "", "contract file or directory (HCL) [REQUIRED]")
		c.Flags().StringVar(&contractID, "id", "", "contract id (optional when the file has one contract)")
		c.MarkFlagRequired("contract")
	}

	tieredCmd.Flags().StringVarP(&tierService, "service", "s", "", "service type whose tiers apply [REQUIRED]")
	tieredCmd.Flags().StringVarP(&tierUsage, "usage", "u", "", "usage quantity [REQUIRED]")
	tieredCmd.MarkFlagRequired("service")
	tieredCmd.MarkFlagRequired("usage")

	overageCmd.Flags().StringArrayVarP(&overageUsage, "usage", "u", nil, "usage per service as service=amount (repeatable)")
	overageCmd.Flags().StringVar(&overageOwner, "owner", "", "read usage from this ledger owner")
	overageCmd.Flags().StringVar(&periodFrom, "from", "", "period start (YYYY-MM-DD)")
	overageCmd.Flags().StringVar(&periodTo, "to", "", "period end, inclusive (YYYY-MM-DD)")
}
