package internal

import (
	"strings"

	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/manifest"
	"github.com/spqsync/spqsync/internal/models"

	"github.com/spf13/cobra"
)

func NewFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Manage the repository's platform filters",
	}
	cmd.AddCommand(newFilterAddCmd(), newFilterRemoveCmd(), newFilterListCmd())
	return cmd
}

func filterFromFlags(cmd *cobra.Command) models.Filter {
	platform, _ := cmd.Flags().GetString("platform")
	osv, _ := cmd.Flags().GetString("os")
	category, _ := cmd.Flags().GetStringSlice("category")
	releaseType, _ := cmd.Flags().GetStringSlice("release-type")
	characteristic, _ := cmd.Flags().GetStringSlice("characteristic")

	f := models.Filter{
		Platform:        platform,
		OperatingSystem: osv,
		Category:        category,
		ReleaseType:     releaseType,
		Characteristic:  characteristic,
	}
	if cmd.Flags().Changed("prefer-ltsc") {
		v, _ := cmd.Flags().GetBool("prefer-ltsc")
		f.PreferLTSC = &v
	}
	return f
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("platform", "p", "", "Platform id (4 hex digits)")
	cmd.Flags().String("os", "", `Operating system ("win10:22H2", "win11", or "*")`)
	cmd.Flags().StringSlice("category", nil, "Category buckets (default all)")
	cmd.Flags().StringSlice("release-type", nil, "Release types (default all)")
	cmd.Flags().StringSlice("characteristic", nil, "Characteristics: ssm, dpb, uwp (default all)")
	cmd.Flags().Bool("prefer-ltsc", false, "Prefer the LTSC catalog variant")
	_ = cmd.MarkFlagRequired("platform")
}

func newFilterAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a filter (duplicates are skipped silently)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			m, err := manifest.Load(root)
			if err != nil {
				return err
			}
			if !manifest.AddFilter(m, filterFromFlags(cmd)) {
				logger.Info("filter already present, nothing to do")
				return nil
			}
			if err := manifest.Save(root, m); err != nil {
				return err
			}
			logger.Success("filter added (%d configured)", len(m.Filters))
			return nil
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func newFilterRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove filters for a platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			platform, _ := cmd.Flags().GetString("platform")
			m, err := manifest.Load(root)
			if err != nil {
				return err
			}
			platform = strings.ToLower(platform)
			removed := manifest.RemoveFilters(m, func(f models.Filter) bool {
				return platform == "all" || f.Platform == platform
			})
			if removed == 0 {
				logger.Warn("no filters matched platform %s", platform)
				return nil
			}
			if err := manifest.Save(root, m); err != nil {
				return err
			}
			logger.Success("removed %d filter(s)", removed)
			return nil
		},
	}
	cmd.Flags().StringP("platform", "p", "", `Platform id, or "all"`)
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func newFilterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			m, err := manifest.Load(root)
			if err != nil {
				return err
			}
			table := logger.CreateTable([]string{"Platform", "OS", "Category", "ReleaseType", "Characteristic", "LTSC"})
			for _, f := range m.Filters {
				ltsc := ""
				if f.PreferLTSC != nil {
					if *f.PreferLTSC {
						ltsc = "yes"
					} else {
						ltsc = "no"
					}
				}
				if err := table.Append([]string{
					f.Platform,
					f.OperatingSystem,
					strings.Join(f.Category, ","),
					strings.Join(f.ReleaseType, ","),
					strings.Join(f.Characteristic, ","),
					ltsc,
				}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
