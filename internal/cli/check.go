package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CheckCmd returns the check command: run one check by name.
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [name]",
		Short: "Run a single check by name",
		Long: `Run one configured check once and report its result.

Examples:
  rentwatch check rental_overdue
  rentwatch check maintenance_due`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			eng, err := a.buildEngine()
			if err != nil {
				return err
			}

			report, err := eng.RunCheck(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("available checks: %v: %w", eng.Names(), err)
			}
			if report.Error != "" {
				return fmt.Errorf("check %s failed: %s", args[0], report.Error)
			}

			r := report.Result
			fmt.Printf("%s %s: created=%d updated=%d resolved=%d skipped=%d deleted=%d (%s)\n",
				color.New(color.FgGreen).Sprint("✓"), args[0],
				r.Created, r.Updated, r.Resolved, r.Skipped, r.Deleted,
				report.Duration)
			return nil
		},
	}
}
