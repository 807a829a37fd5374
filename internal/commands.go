package internal

import "github.com/spf13/cobra"

func RegisterSubCommands(root *cobra.Command) {
	root.AddCommand(
		NewInitCmd(),
		NewFilterCmd(),
		NewSyncCmd(),
		NewCleanupCmd(),
		NewReportCmd(),
		NewConfigCmd(),
	)
}
