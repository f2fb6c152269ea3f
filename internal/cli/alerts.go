package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rentwatch/rentwatch/internal/types"
)

// AlertsCmd returns the alerts command: list the active feed.
func AlertsCmd() *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List active alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			alerts, err := a.alerts.ListActive(context.Background(), time.Now())
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			if !showAll {
				unread := alerts[:0]
				for _, a := range alerts {
					if !a.IsRead {
						unread = append(unread, a)
					}
				}
				alerts = unread
			}

			if len(alerts) == 0 {
				fmt.Println("No active alerts.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSEVERITY\tTYPE\tENTITY\tTITLE\tAGE")
			for _, a := range alerts {
				age := time.Since(a.CreatedAt).Round(time.Minute)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s/%d\t%s\t%s\n",
					a.ID, severityLabel(a.Severity), a.Type,
					a.EntityType, a.EntityID, a.Title, age)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "Include alerts already marked read")

	return cmd
}

func severityLabel(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint("critical")
	case types.SeverityHigh:
		return color.New(color.FgRed).Sprint("high")
	case types.SeverityMedium:
		return color.New(color.FgYellow).Sprint("medium")
	default:
		return string(s)
	}
}
