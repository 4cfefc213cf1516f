package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"shelfex/internal/config"
	"shelfex/internal/extractor"
	"shelfex/internal/fetch"
	"shelfex/internal/manifest"
	"shelfex/internal/report"
	"shelfex/internal/tui"
)

var (
	extractManifest  string
	extractOut       string
	extractStart     int
	extractZipField  string
	extractJSONField string
	extractLimitRows int
	extractReport    bool
	extractTUI       bool
)

// extractCmd runs the extraction pipeline over a manifest.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Download manifest archives and extract numbered images plus metadata",
	Long: `Processes each manifest row in order:
1. Resolves the archive URL and JSON sidecar from the row (whitespace-tolerant headers).
2. Downloads the ZIP with bounded retry and exponential backoff.
3. Matches sidecar entries to archive members by base filename, dropping
   entries without a usable barcode.
4. Saves matched images as <n>.heif with a single run-wide counter and appends
   one "<barcode>, <source>" line per image to metadata.txt.
A failed row is logged and skipped; the run always continues to the next row.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		ctx := context.Background()

		cfg := config.Config{
			ManifestPath: extractManifest,
			OutputDir:    extractOut,
			DbPath:       dbPath,
			StartIndex:   extractStart,
			ZipURLField:  extractZipField,
			JSONField:    extractJSONField,
			RowLimit:     extractLimitRows,
		}

		rows, err := manifest.ReadRows(cfg.ManifestPath, cfg.RowLimit)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		if len(rows) == 0 {
			logger.Warn("No rows found in manifest.", slog.String("path", cfg.ManifestPath))
			return nil
		}
		logger.Info("Loaded manifest rows.", slog.Int("count", len(rows)), slog.String("path", cfg.ManifestPath))

		opts := extractor.Options{
			Config:  cfg,
			Logger:  logger,
			Fetcher: fetch.New(logger),
			Journal: getJournal(),
		}

		var res extractor.Result
		if extractTUI {
			res, err = runWithTUI(ctx, opts, rows)
		} else {
			res, err = extractor.Run(ctx, opts, rows)
		}
		if err != nil {
			return fmt.Errorf("extract run failed: %w", err)
		}

		if extractReport {
			reportPath := filepath.Join(cfg.OutputDir, "run_report.parquet")
			if err := report.WriteRowReport(reportPath, res.Outcomes); err != nil {
				logger.Error("Failed to write run report.", "error", err)
			} else {
				logger.Info("Run report written.", slog.String("path", reportPath))
			}
		}

		logger.Info("Done.",
			slog.Int("final_counter", res.FinalCounter),
			slog.String("output_dir", cfg.OutputDir),
			slog.String("metadata_path", res.MetadataPath))
		return nil
	},
}

// runWithTUI renders pipeline progress with a terminal UI while the pipeline
// itself runs sequentially in a single background goroutine. Quitting the
// display cancels the pipeline context; the pipeline stops at the next row
// boundary and its real result is still collected and returned.
func runWithTUI(ctx context.Context, opts extractor.Options, rows []manifest.Row) (extractor.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.New(len(rows))
	program := tea.NewProgram(model)

	opts.Progress = func(u extractor.Update) {
		program.Send(tui.RowUpdateMsg{Update: u})
	}

	type pipelineResult struct {
		res extractor.Result
		err error
	}
	done := make(chan pipelineResult, 1)
	go func() {
		res, err := extractor.Run(ctx, opts, rows)
		done <- pipelineResult{res: res, err: err}
		program.Send(tui.RunFinishedMsg{Result: res, Err: err})
	}()

	_, uiErr := program.Run()
	cancel()
	out := <-done
	if uiErr != nil {
		return out.res, fmt.Errorf("progress display failed: %w", uiErr)
	}
	return out.res, out.err
}

func init() {
	extractCmd.Flags().StringVarP(&extractManifest, "manifest", "m", "", "Path to the manifest CSV file")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Output directory for images and metadata.txt")
	extractCmd.Flags().IntVar(&extractStart, "start", 0, "Starting value for image numbering")
	extractCmd.Flags().StringVar(&extractZipField, "zip-field", config.DefaultZipURLField, "Manifest column holding the archive URL")
	extractCmd.Flags().StringVar(&extractJSONField, "json-field", config.DefaultJSONField, "Manifest column holding the JSON sidecar")
	extractCmd.Flags().IntVar(&extractLimitRows, "limit-rows", 0, "If >0, read and process only this many rows")
	extractCmd.Flags().BoolVar(&extractReport, "report", false, "Write a Parquet run report into the output directory")
	extractCmd.Flags().BoolVar(&extractTUI, "tui", false, "Show interactive progress display")

	_ = extractCmd.MarkFlagRequired("manifest")
	_ = extractCmd.MarkFlagRequired("out")
}
