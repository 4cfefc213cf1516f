package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelfex/internal/journal"
)

var stateLimit int
var stateFilterEvent string

// stateCmd views the event journal history.
var stateCmd = &cobra.Command{
	Use:   "state [subject-type]",
	Short: "View the event journal history (runs, rows, or zips)",
	Long: `Queries the DuckDB event journal and displays recent history.
Specify 'runs', 'rows' or 'zips' as an optional argument to filter by subject type.
Use flags to filter by event type and limit the output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()

		typeFilter := ""
		if len(args) > 0 {
			switch strings.ToLower(args[0]) {
			case "runs", "run":
				typeFilter = journal.TypeRun
			case "rows", "row":
				typeFilter = journal.TypeRow
			case "zips", "zip":
				typeFilter = journal.TypeZip
			default:
				return fmt.Errorf("invalid subject-type filter: %s (use 'runs', 'rows' or 'zips')", args[0])
			}
		}

		logger.Debug("Querying event journal", "type_filter", typeFilter, "event_filter", stateFilterEvent, "limit", stateLimit)

		if err := getJournal().DisplayHistory(context.Background(), typeFilter, stateFilterEvent, stateLimit); err != nil {
			logger.Error("Failed to display journal history", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	stateCmd.Flags().IntVarP(&stateLimit, "limit", "n", 50, "Limit the number of log records displayed")
	stateCmd.Flags().StringVarP(&stateFilterEvent, "event", "e", "", "Filter records by event type (e.g., download_end, row_skip, error)")
}
