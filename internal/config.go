package internal

import (
	"encoding/base64"
	"fmt"

	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/manifest"
	"github.com/spqsync/spqsync/internal/models"

	"github.com/spf13/cobra"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Update repository settings and notification targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			m, err := manifest.Load(root)
			if err != nil {
				return err
			}

			changed, err := applySettingsFlags(cmd, m)
			if err != nil {
				return err
			}
			nchanged, err := applyNotificationFlags(cmd, m)
			if err != nil {
				return err
			}
			if !changed && !nchanged {
				logger.Info("nothing to update")
				return nil
			}
			if err := manifest.Save(root, m); err != nil {
				return err
			}
			logger.Success("repository configuration updated")
			return nil
		},
	}

	cmd.Flags().String("on-not-found", "", "Policy for missing remote files: Fail or LogAndContinue")
	cmd.Flags().Int("max-retries", 0, "Max retries per network operation")
	cmd.Flags().String("offline-cache", "", "Offline cache mode: Enable or Disable")
	cmd.Flags().String("report-format", "", "Repository report format: CSV, JSON, XML or ExcelCSV")

	cmd.Flags().String("smtp-server", "", "Notification SMTP server")
	cmd.Flags().Int("smtp-port", 0, "Notification SMTP port")
	cmd.Flags().Bool("smtp-tls", false, "Require TLS for notification delivery")
	cmd.Flags().String("smtp-user", "", "SMTP username")
	cmd.Flags().String("smtp-password", "", "SMTP password (stored base64 encoded)")
	cmd.Flags().String("from", "", "Notification sender address")
	cmd.Flags().String("from-name", "", "Notification sender display name")
	cmd.Flags().StringSlice("to", nil, "Notification recipient addresses")
	return cmd
}

func applySettingsFlags(cmd *cobra.Command, m *models.RepositoryManifest) (bool, error) {
	changed := false

	if cmd.Flags().Changed("on-not-found") {
		v, _ := cmd.Flags().GetString("on-not-found")
		switch models.NotFoundPolicy(v) {
		case models.NotFoundFail, models.NotFoundLogAndContinue:
			m.Settings.OnRemoteFileNotFound = models.NotFoundPolicy(v)
		default:
			return false, fmt.Errorf("invalid --on-not-found value %q", v)
		}
		changed = true
	}
	if cmd.Flags().Changed("max-retries") {
		v, _ := cmd.Flags().GetInt("max-retries")
		if v < 1 {
			return false, fmt.Errorf("--max-retries must be at least 1")
		}
		m.Settings.ExclusiveLockMaxRetries = v
		changed = true
	}
	if cmd.Flags().Changed("offline-cache") {
		v, _ := cmd.Flags().GetString("offline-cache")
		switch models.ToggleState(v) {
		case models.ToggleEnable, models.ToggleDisable:
			m.Settings.OfflineCacheMode = models.ToggleState(v)
		default:
			return false, fmt.Errorf("invalid --offline-cache value %q", v)
		}
		changed = true
	}
	if cmd.Flags().Changed("report-format") {
		v, _ := cmd.Flags().GetString("report-format")
		format, err := parseReportFormat(v)
		if err != nil {
			return false, err
		}
		m.Settings.RepositoryReport = format
		changed = true
	}
	return changed, nil
}

func applyNotificationFlags(cmd *cobra.Command, m *models.RepositoryManifest) (bool, error) {
	touched := false
	for _, name := range []string{"smtp-server", "smtp-port", "smtp-tls", "smtp-user", "smtp-password", "from", "from-name", "to"} {
		if cmd.Flags().Changed(name) {
			touched = true
			break
		}
	}
	if !touched {
		return false, nil
	}

	cfg := m.Notifications
	if cfg == nil {
		cfg = &models.NotificationConfig{}
		m.Notifications = cfg
	}

	if cmd.Flags().Changed("smtp-server") {
		cfg.Server, _ = cmd.Flags().GetString("smtp-server")
	}
	if cmd.Flags().Changed("smtp-port") {
		cfg.Port, _ = cmd.Flags().GetInt("smtp-port")
	}
	if cmd.Flags().Changed("smtp-tls") {
		cfg.TLS, _ = cmd.Flags().GetBool("smtp-tls")
	}
	if cmd.Flags().Changed("smtp-user") {
		cfg.Username, _ = cmd.Flags().GetString("smtp-user")
	}
	if cmd.Flags().Changed("smtp-password") {
		pw, _ := cmd.Flags().GetString("smtp-password")
		cfg.EncryptedPassword = base64.StdEncoding.EncodeToString([]byte(pw))
	}
	if cmd.Flags().Changed("from") {
		cfg.From, _ = cmd.Flags().GetString("from")
	}
	if cmd.Flags().Changed("from-name") {
		cfg.FromName, _ = cmd.Flags().GetString("from-name")
	}
	if cmd.Flags().Changed("to") {
		cfg.Addresses, _ = cmd.Flags().GetStringSlice("to")
	}
	return true, nil
}
