// Package cli implements the credits command line.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"tuition-credits/internal/app"
	"tuition-credits/internal/config"
	"tuition-credits/internal/i18n"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config", "Directory containing config.yaml")
}

var rootCmd = &cobra.Command{
	Use:   "credits",
	Short: "Credit ledger for the tuition marketplace",
	Long: `credits runs and administers the credit ledger of the tuition marketplace:
signup bonuses, package purchases, action costs, rewards and admin overrides.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads configuration and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := app.SetupLogger(cfg.Log); err != nil {
		return nil, err
	}
	log.Debug().Str("driver", cfg.Storage.Driver).Msg("Configuration loaded successfully")
	return cfg, nil
}

// withApp builds the application for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// localeFlag resolves the --lang flag, falling back to the configured
// default locale.
func localeFlag(cmd *cobra.Command, a *app.App) (language.Tag, error) {
	lang, _ := cmd.Flags().GetString("lang")
	if lang == "" {
		return a.Translator.Fallback(), nil
	}
	return i18n.Parse(lang)
}
