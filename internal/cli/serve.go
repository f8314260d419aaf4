package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tuition-credits/internal/app"
	"tuition-credits/internal/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("init-packages", true, "Store the default package catalog on startup if none exists")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if initPkgs, _ := cmd.Flags().GetBool("init-packages"); initPkgs {
				created, err := a.Service.InitializePackages(ctx)
				if err != nil {
					return err
				}
				log.Info().Bool("created", created).Msg("Package catalog ready")
			}

			srv, err := server.New(&server.Dependencies{
				Config:      a.Config,
				Handler:     a.Handler(),
				HealthCheck: a.HealthCheck,
			})
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-sigCtx.Done():
				log.Info().Msg("Received shutdown signal")
			}

			if err := srv.Stop(context.Background()); err != nil {
				return err
			}
			log.Info().Msg("Server stopped gracefully")
			return nil
		})
	},
}
