package internal

import (
	"fmt"

	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/versions"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spqsync",
		Short: "Filtered SoftPaq repository mirror",
		Long: `Spqsync maintains a local, filtered mirror of vendor SoftPaq packages,
selected by platform/OS/category filters and kept in sync with the
remote reference catalogs.`,
		Example: `spqsync init && spqsync filter add --platform 83b2 --os win10:22H2 && spqsync sync`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.ConfigureLoggerFromFlags()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			versionFlag, _ := cmd.Flags().GetBool("version")
			if versionFlag {
				fmt.Printf("Version: %s\n", versions.Version)
				return
			}
			_ = cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.Flags().BoolP("version", "v", false, "Print version information")
	cmd.PersistentFlags().StringP("repo", "r", ".", "Repository root directory")
	cmd.PersistentFlags().CountVarP(&logger.FlagVerboseCount, "verbose", "V", "Increase log verbosity")
	cmd.PersistentFlags().BoolVarP(&logger.FlagQuiet, "quiet", "q", false, "Only print errors")
	cmd.PersistentFlags().BoolVar(&logger.FlagJSON, "json-logs", false, "Emit JSON logs (CI)")

	RegisterSubCommands(cmd)

	return cmd
}

func Execute() error {
	root := NewRootCmd()

	if err := root.Execute(); err != nil {
		logger.Debug("Failed to execute root command: %v", err)
		return err
	}
	return nil
}
