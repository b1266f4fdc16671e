// Package cmd - usage ledger commands
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	adapter "usage-pricing/adapters/cli"
)

var (
	usageOwner       string
	usageService     string
	usageAmount      string
	usageUnit        string
	usageRate        string
	usageCost        string
	usageDate        string
	usageExternalID  string
	usageDescription string
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Record usage in the ledger",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var usageImportCmd = &cobra.Command{
	Use:   "import <cdr.csv>",
	Short: "Import call-detail records from a CSV file",
	Long: `Normalize a CSV of call-detail records and append them to the ledger.

The header row names the columns; recognised names include id, from,
to/destination, duration (seconds), date and service_type. Rows with an
unreadable date are skipped and reported. Rates come from the contract
(--contract, --id) when given, else from the configured default rate.

Examples:
  usage-pricing usage import calls.csv --owner acme --contract contracts.hcl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapter(cmd, func(ctx context.Context, a *adapter.CLIAdapter) error {
			return a.Import(ctx, adapter.ImportRequest{
				Path:         args[0],
				Owner:        usageOwner,
				ContractPath: contractPath,
				ContractID:   contractID,
			})
		})
	},
}

var usageAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a manual usage entry",
	Long: `Append one manual usage entry to the ledger. Without --cost the entry
is charged amount x rate.

Examples:
  usage-pricing usage add --owner acme --service data --amount 10 --rate 0.2
  usage-pricing usage add --owner acme --amount 1 --unit seat --cost 49.00 --date 2026-01-15`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var date time.Time
		if usageDate != "" {
			var err error
			if date, err = time.Parse(time.DateOnly, usageDate); err != nil {
				return fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", usageDate)
			}
		}

		return withAdapter(cmd, func(ctx context.Context, a *adapter.CLIAdapter) error {
			return a.Add(ctx, adapter.AddRequest{
				Owner:       usageOwner,
				Service:     usageService,
				Amount:      usageAmount,
				Unit:        usageUnit,
				Rate:        usageRate,
				Cost:        usageCost,
				Date:        date,
				ExternalID:  usageExternalID,
				Description: usageDescription,
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usageImportCmd)
	usageCmd.AddCommand(usageAddCmd)

	usageCmd.PersistentFlags().StringVarP(&usageOwner, "owner", "o", "", "ledger owner (billing entity) [REQUIRED]")
	usageCmd.MarkPersistentFlagRequired("owner")

	usageImportCmd.Flags().StringVarP(&contractPath, "contract", "c", "", "contract file or directory (HCL)")
	usageImportCmd.Flags().StringVar(&contractID, "id", "", "contract id (defaults to the owner)")

	usageAddCmd.Flags().StringVarP(&usageService, "service", "s", "", "service type (default manual)")
	usageAddCmd.Flags().StringVarP(&usageAmount, "amount", "a", "", "usage amount [REQUIRED]")
	usageAddCmd.Flags().StringVar(&usageUnit, "unit", "", "usage unit (default minutes)")
	usageAddCmd.Flags().StringVar(&usageRate, "rate", "", "unit rate")
	usageAddCmd.Flags().StringVar(&usageCost, "cost", "", "total cost (default amount x rate)")
	usageAddCmd.Flags().StringVar(&usageDate, "date", "", "usage date (YYYY-MM-DD, default now)")
	usageAddCmd.Flags().StringVar(&usageExternalID, "external-id", "", "upstream identifier")
	usageAddCmd.Flags().StringVar(&usageDescription, "description", "", "free text")
	usageAddCmd.MarkFlagRequired("amount")
}
