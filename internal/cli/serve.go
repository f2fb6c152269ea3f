package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rentwatch/rentwatch/internal/api"
)

// ServeCmd returns the serve command.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and admin API",
		Long: `Start all configured checks on their schedules and serve the admin
HTTP API. Runs until SIGINT or SIGTERM, then drains in-flight check
runs before exiting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logBuffer := api.NewLogBuffer(1000)
			a, err := loadApp(logBuffer)
			if err != nil {
				return err
			}
			defer a.Close()

			a.log.Info().
				Str("alerts_db", a.cfg.AlertsDB).
				Str("domain_db", a.cfg.DomainDB).
				Str("timezone", a.loc.String()).
				Msg("starting rentwatch")

			eng, err := a.buildEngine()
			if err != nil {
				return err
			}
			if err := eng.Start(); err != nil {
				return err
			}

			srv := api.NewServer(eng, a.alerts, a.log, a.cfg.API.Port)
			srv.SetLogBuffer(logBuffer)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			select {
			case s := <-sig:
				a.log.Info().Str("signal", s.String()).Msg("shutting down")
			case err := <-errCh:
				eng.Stop()
				return fmt.Errorf("admin API failed: %w", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Error().Err(err).Msg("admin API shutdown failed")
			}
			eng.Stop()

			a.log.Info().Msg("rentwatch stopped")
			return nil
		},
	}
}
