package internal

import (
	"fmt"
	"os"

	"github.com/spqsync/spqsync/internal/models"
	"github.com/spqsync/spqsync/internal/report"
	"github.com/spqsync/spqsync/internal/utils"

	"github.com/spf13/cobra"
)

func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect or export the repository contents report",
	}
	cmd.AddCommand(newReportListCmd(), newReportExportCmd())
	return cmd
}

func newReportListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the repository contents as a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			rows, err := report.Collect(root)
			if err != nil {
				return err
			}
			return report.RenderTable(rows)
		},
	}
}

func newReportExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Serialize the repository report to a file or stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := cmd.Flags().GetString("repo")
			if err != nil {
				return err
			}
			formatFlag, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			gz, _ := cmd.Flags().GetBool("gzip")

			format, err := parseReportFormat(formatFlag)
			if err != nil {
				return err
			}

			rows, err := report.Collect(root)
			if err != nil {
				return err
			}
			data, err := report.Serialize(rows, format)
			if err != nil {
				return err
			}
			if gz {
				if data, err = utils.GzipCompress(data); err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringP("format", "f", "CSV", "Report format: CSV, JSON, XML or ExcelCSV")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().Bool("gzip", false, "Gzip-compress the output")
	return cmd
}

func parseReportFormat(s string) (models.ReportFormat, error) {
	switch models.ReportFormat(s) {
	case models.ReportCSV, models.ReportJSON, models.ReportXML, models.ReportExcelCSV:
		return models.ReportFormat(s), nil
	}
	return "", fmt.Errorf("unknown report format %q (want CSV, JSON, XML or ExcelCSV)", s)
}
