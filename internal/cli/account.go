package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tuition-credits/internal/app"
	"tuition-credits/internal/model"
)

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountCreateCmd)

	accountShowCmd.Flags().String("lang", "", "Locale for descriptions (en or bn)")
	accountShowCmd.Flags().Int("limit", 10, "Number of recent transactions to show")
	accountCreateCmd.Flags().String("type", "", "User type: teacher, guardian, student or admin")
	_ = accountCreateCmd.MarkFlagRequired("type")
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect and create credit accounts",
}

var accountShowCmd = &cobra.Command{
	Use:   "show USER_ID",
	Short: "Show an account's balance and recent transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			tag, err := localeFlag(cmd, a)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			acct, err := a.Service.GetAccount(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:      %s (%s)\n", acct.UserID, acct.UserType)
			fmt.Fprintf(out, "Balance:   %d\n", acct.CurrentBalance)
			fmt.Fprintf(out, "Earned:    %d\n", acct.TotalEarned)
			fmt.Fprintf(out, "Spent:     %d\n", acct.TotalSpent)
			fmt.Fprintf(out, "Purchased: %d\n", acct.TotalPurchased)

			if len(acct.Transactions) == 0 {
				return nil
			}
			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tBALANCE\tDESCRIPTION")
			for i, tx := range acct.Transactions {
				if limit > 0 && i >= limit {
					break
				}
				fmt.Fprintf(tw, "%s\t%s\t%+d\t%d\t%s\n",
					tx.Timestamp.Format(time.RFC3339),
					a.Translator.TypeLabel(tag, tx.Type),
					tx.Amount, tx.Balance,
					a.Translator.Describe(tag, tx))
			}
			return tw.Flush()
		})
	},
}

var accountCreateCmd = &cobra.Command{
	Use:   "create USER_ID",
	Short: "Create an account with its signup bonus, if it does not exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			userType, _ := cmd.Flags().GetString("type")
			acct, err := a.Service.GetOrCreateAccount(ctx, args[0], model.UserType(userType))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) balance %d\n", acct.UserID, acct.UserType, acct.CurrentBalance)
			return nil
		})
	},
}
