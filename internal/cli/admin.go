package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tuition-credits/internal/app"
)

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminSetBalanceCmd)

	adminSetBalanceCmd.Flags().String("note", "", "Reason recorded on the override")
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Privileged ledger operations",
}

var adminSetBalanceCmd = &cobra.Command{
	Use:   "set-balance USER_ID BALANCE",
	Short: "Set an account's balance to an exact value",
	Long: `Set an account's balance to an exact value, recording an admin_added or
admin_deducted transaction for the difference. Negative values are accepted
only when ledger.admin_allow_negative is enabled; pass them after "--":

  credits admin set-balance --note "refund reversal" t-42 -- -20`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		balance, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid balance %q: %w", args[1], err)
		}
		note, _ := cmd.Flags().GetString("note")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			tx, err := a.Service.AdminSetBalance(ctx, args[0], balance, note)
			if err != nil {
				return err
			}
			if tx == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Balance of %s already %d, nothing recorded.\n", args[0], balance)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance of %s set to %d (%s %+d).\n", args[0], tx.Balance, tx.Type, tx.Amount)
			return nil
		})
	},
}
