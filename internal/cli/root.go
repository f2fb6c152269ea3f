// Package cli wires the rentwatch command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/rentwatch/rentwatch/internal/version"
)

var (
	configPath string
	logLevel   string
)

// RootCmd builds the rentwatch command tree.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rentwatch",
		Short:   "Alert engine for the rental fleet",
		Version: version.GetFullVersion(),
		Long: `rentwatch watches the rental business database and maintains a
deduplicated alert feed: maintenance and insurance deadlines, rentals
running out or overdue, pending payments, low stock, expiring quotes
and stale leads.`,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "rentwatch.yaml", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(ServeCmd())
	cmd.AddCommand(SweepCmd())
	cmd.AddCommand(CheckCmd())
	cmd.AddCommand(CleanupCmd())
	cmd.AddCommand(AlertsCmd())
	cmd.AddCommand(VersionCmd())

	return cmd
}
