// Package cli implements the hassdesk CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hassdesk",
	Short: "Control Home Assistant entities from the system tray",
	Long: `hassdesk keeps a tray menu of Home Assistant entities you can toggle
with one click. This CLI edits its settings and manages the tray daemon.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}
