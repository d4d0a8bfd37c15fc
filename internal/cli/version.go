package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codescout/scout-mcp/internal/version"
)

// NewVersionCmd creates the 'version' command.
func NewVersionCmd() *cobra.Command {
	var checkUpdate bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version, commit hash, and build date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, checkUpdate)
		},
	}

	cmd.Flags().BoolVar(&checkUpdate, "check-update", false, "check GitHub for a newer release")

	return cmd
}

func runVersion(cmd *cobra.Command, checkUpdate bool) error {
	v, c, d := version.GetVersionComponents()
	fmt.Printf("Version:  %s\n", v)
	fmt.Printf("Commit:   %s\n", c)
	fmt.Printf("Built:    %s\n", d)

	if checkUpdate {
		latest, err := version.CheckUpdate(cmd.Context())
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if latest == "" {
			fmt.Println("Up to date")
		} else {
			fmt.Printf("Update available: v%s\n", latest)
		}
	}
	return nil
}
