package internal

import (
	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/retention"

	"github.com/spf13/cobra"
)

func NewCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete artifacts no longer selected by the last sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			deleted, err := retention.New(root).Cleanup()
			if err != nil {
				return err
			}
			logger.Success("cleanup removed %d file(s)", deleted)
			return nil
		},
	}
	return cmd
}
