package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tuition-credits/internal/app"
	"tuition-credits/internal/service"
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("lang", "", "Locale for descriptions (en or bn)")
	exportCmd.Flags().String("format", "csv", "Output format: csv or json")
	exportCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
}

var exportCmd = &cobra.Command{
	Use:   "export USER_ID",
	Short: "Export an account's transaction history, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "csv" && format != "json" {
			return fmt.Errorf("unknown format %q", format)
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			tag, err := localeFlag(cmd, a)
			if err != nil {
				return err
			}
			records, err := a.Service.ExportHistory(ctx, args[0], tag)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if format == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			return service.WriteHistoryCSV(w, records)
		})
	},
}
