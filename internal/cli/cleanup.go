package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// CleanupCmd returns the cleanup command: run the retention job once.
func CleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired alerts and old resolved alerts",
		Long: `Run the retention job once: delete alerts past their expiry and
resolved alerts older than the configured retention window.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.retention().Cleanup(context.Background(), time.Now())
			if err != nil {
				return fmt.Errorf("failed to clean up alerts: %w", err)
			}

			fmt.Printf("Deleted %d alerts (%d expired, %d resolved more than %d days ago)\n",
				result.Total, result.ExpiredDeleted, result.OldResolvedDeleted,
				a.cfg.Retention.ResolvedDays)
			return nil
		},
	}
}
