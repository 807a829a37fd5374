package internal

import (
	"os"
	"path/filepath"

	"github.com/spqsync/spqsync/internal/globalconfig"
	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/manifest"
	"github.com/spqsync/spqsync/internal/utils"

	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a repository in the target directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			return runInit(root)
		},
	}
	return cmd
}

func runInit(root string) error {
	path := manifest.Path(root)
	if ok, err := utils.FileExists(path); err != nil {
		return err
	} else if ok {
		logger.Warn("repository already initialized at %s", root)
		return nil
	}

	for _, dir := range []string{
		filepath.Join(root, globalconfig.RepoDirName),
		filepath.Join(root, globalconfig.RepoDirName, globalconfig.MarkerDirName),
		filepath.Join(root, globalconfig.RepoDirName, globalconfig.CacheDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if err := manifest.Save(root, manifest.New()); err != nil {
		return err
	}
	logger.Success("initialized repository at %s", root)
	return nil
}
