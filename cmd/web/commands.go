package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bandcamp-dashboard/internal/dataset"
	"bandcamp-dashboard/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard figures as text tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = a.cfg.Dashboard.TopN
			}
			analytics, err := a.loadAnalytics(cmd.Context())
			if err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}
			return report.Write(cmd.OutOrStdout(), analytics, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "rows per ranking (defaults to DASHBOARD_TOP_N)")
	return cmd
}

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert [output.parquet]",
		Short: "Clean the dataset and write it as a parquet snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := snapshotPath(a.cfg.Data.File, a.cfg.Data.SnapshotFile, args)

			records, err := dataset.Open(cmd.Context(), a.cfg.Data.File)
			if err != nil {
				return fmt.Errorf("read %s: %w", a.cfg.Data.File, err)
			}
			if err := dataset.WriteParquet(cmd.Context(), out, records); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			a.logger.Info("snapshot written", "path", out, "records", len(records))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), out)
			return nil
		},
	}
}

// snapshotPath picks the convert target: the argument, then the configured
// snapshot, then the source name with a .parquet extension.
func snapshotPath(source, configured string, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if configured != "" {
		return configured
	}
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".parquet"
}
