package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SweepCmd returns the sweep command: run every check once and exit.
func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run every check once and report per-check results",
		Long: `Run all configured checks and the retention job once, outside the
scheduler. Exits non-zero if any check failed; the remaining checks
still run.`,
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

			reports := eng.RunAll(context.Background())

			names := make([]string, 0, len(reports))
			for name := range reports {
				names = append(names, name)
			}
			sort.Strings(names)

			failed := 0
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHECK\tSTATUS\tCREATED\tUPDATED\tRESOLVED\tSKIPPED\tDELETED")
			for _, name := range names {
				r := reports[name]
				status := color.New(color.FgGreen).Sprint("ok")
				if r.Error != "" {
					status = color.New(color.FgRed).Sprint("FAILED")
					failed++
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					name, status,
					r.Result.Created, r.Result.Updated, r.Result.Resolved,
					r.Result.Skipped, r.Result.Deleted)
			}
			w.Flush()

			for _, name := range names {
				if reports[name].Error != "" {
					fmt.Printf("\n%s %s: %s\n", color.New(color.FgRed).Sprint("✗"), name, reports[name].Error)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(reports))
			}
			return nil
		},
	}
}
