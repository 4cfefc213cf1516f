package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"shelfex/internal/report"
)

var (
	reportOut   string
	reportLimit int
)

// reportCmd exports the event journal to a Parquet file.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the event journal to a Parquet file",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		ctx := context.Background()

		records, err := getJournal().Records(ctx, "", "", reportLimit)
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}
		if len(records) == 0 {
			logger.Warn("Event journal is empty, nothing to report.")
			return nil
		}

		if err := report.WriteEventReport(reportOut, records); err != nil {
			return fmt.Errorf("write event report: %w", err)
		}
		logger.Info("Event report written.", slog.Int("records", len(records)), slog.String("path", reportOut))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "./shelfex_events.parquet", "Output path for the Parquet report")
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 0, "If >0, export only this many records")
}
