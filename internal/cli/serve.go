package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autoblogger/internal/api"
	"autoblogger/internal/app"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the autoblog HTTP API server. Configuration comes from the
environment (PORT, DB_PATH, DATA_DIR, STAGE_DELAY, USE_STUBS, ...).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := app.New(ctx)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer a.Close()

			srv := api.New(a.Store, a.Settings, a.Pipeline, a.Config.CORSOrigin)
			httpServer := &http.Server{
				Addr:    ":" + a.Config.Port,
				Handler: srv.Handler(),
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					slog.Info("received signal, shutting down", "signal", sig)
				case <-ctx.Done():
				}
				cancel()
				httpServer.Shutdown(context.Background())
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "autoblogger server listening on http://localhost:%s\n", a.Config.Port)
			if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}
