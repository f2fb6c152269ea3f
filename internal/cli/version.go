package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentwatch/rentwatch/internal/version"
)

// VersionCmd returns the version command.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rentwatch %s\n", version.GetFullVersion())
		},
	}
}
