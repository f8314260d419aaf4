package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tuition-credits/internal/app"
	"tuition-credits/internal/model"
)

func init() {
	rootCmd.AddCommand(packagesCmd)
	packagesCmd.AddCommand(packagesListCmd)
	packagesCmd.AddCommand(packagesInitCmd)

	packagesListCmd.Flags().String("role", "", "Only list packages for this role (teacher or guardian)")
	packagesListCmd.Flags().String("lang", "", "Locale for package names (en or bn)")
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "Inspect and initialize the package catalog",
}

var packagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credit packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			tag, err := localeFlag(cmd, a)
			if err != nil {
				return err
			}
			role, _ := cmd.Flags().GetString("role")

			pkgs, err := a.Service.ListPackages(ctx, model.UserType(role))
			if err != nil {
				return err
			}
			if len(pkgs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No packages. Run 'credits packages init' first.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tROLE\tCREDITS\tBONUS\tPRICE")
			for _, p := range pkgs {
				price := "free"
				if !p.IsFree {
					price = "৳" + p.Price.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					p.ID, a.Translator.Text(tag, p.Name), p.UserType, p.Credits, p.Bonus, price)
			}
			return tw.Flush()
		})
	},
}

var packagesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Store the default package catalog if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			created, err := a.Service.InitializePackages(ctx)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(cmd.OutOrStdout(), "Default packages stored.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Packages already initialized.")
			}
			return nil
		})
	},
}
