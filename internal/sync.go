package internal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spqsync/spqsync/internal/globalconfig"
	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/manifest"
	"github.com/spqsync/spqsync/internal/models"
	"github.com/spqsync/spqsync/internal/report"
	"github.com/spqsync/spqsync/internal/syncer"

	"github.com/spf13/cobra"
)

func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the repository against the remote catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			refURL, _ := cmd.Flags().GetString("url")
			offline, _ := cmd.Flags().GetBool("offline-cache")

			m, err := manifest.Load(root)
			if err != nil {
				return err
			}

			cfg, err := globalconfig.LoadPersistentConfig()
			if err != nil {
				return err
			}
			if refURL == "" {
				refURL = cfg.ReferenceURLOrDefault()
			}

			rctx := syncer.NewContext(root, refURL)
			rctx.RetryPause = cfg.RetryPauseOrDefault()

			s := syncer.New(rctx, m)
			result, syncErr := s.Run(cmd.Context(), m, offline)

			// The report is produced even after a partial failure.
			if rerr := writeRepositoryReport(root, m.Settings.RepositoryReport); rerr != nil {
				logger.Warn("failed to write repository report: %v", rerr)
			}

			if syncErr != nil {
				return syncErr
			}
			logger.Info("selected %d package(s): %d downloaded, %d already current",
				result.Selected, result.Downloaded, result.Skipped)
			return nil
		},
	}
	cmd.Flags().String("url", "", "Reference catalog base URL (default: configured or stock host)")
	cmd.Flags().Bool("offline-cache", false, "Also fetch offline-cache auxiliary artifacts")
	return cmd
}

func writeRepositoryReport(root string, format models.ReportFormat) error {
	rows, err := report.Collect(root)
	if err != nil {
		return err
	}
	data, err := report.Serialize(rows, format)
	if err != nil {
		return err
	}
	name := "report." + strings.ToLower(string(format))
	if format == models.ReportExcelCSV {
		name = "report.csv"
	}
	path := filepath.Join(root, globalconfig.RepoDirName, name)
	return os.WriteFile(path, data, 0o644)
}
