package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shelfex/internal/archive"
	"shelfex/internal/config"
	"shelfex/internal/fetch"
	"shelfex/internal/journal"
	"shelfex/internal/manifest"
	"shelfex/internal/metadata"
)

// Row outcome statuses.
const (
	StatusComplete = "complete"
	StatusSkipped  = "skipped"
	StatusError    = "error"
)

// Update is a progress notification emitted once per row state change.
type Update struct {
	RowIndex    int
	TotalRows   int
	ZipURL      string
	Status      string
	ImagesSaved int
	ErrMsg      string
}

// ProgressFunc receives row progress updates. It is called from the pipeline
// goroutine; implementations must not block on the pipeline itself.
type ProgressFunc func(Update)

// RowOutcome summarizes one processed manifest row.
type RowOutcome struct {
	Index        int
	ZipURL       string
	Status       string
	ImagesSaved  int
	CounterStart int
	CounterEnd   int
	Duration     time.Duration
	ErrMsg       string
}

// Result summarizes a full run.
type Result struct {
	RowsLoaded   int
	RowsFailed   int
	ImagesSaved  int
	FinalCounter int
	MetadataPath string
	Outcomes     []RowOutcome
}

// Options wires the pipeline's collaborators. Journal and Progress may be nil.
type Options struct {
	Config   config.Config
	Logger   *slog.Logger
	Fetcher  *fetch.Fetcher
	Journal  *journal.Journal
	Progress ProgressFunc
}

type pipeline struct {
	opts     Options
	logger   *slog.Logger
	metaFile *os.File
}

// Run processes manifest rows sequentially. The image counter starts at
// Config.StartIndex and is threaded through each row call; a failed row
// contributes the counter value it returned and the run continues with the
// next row. Only output-directory or metadata-log setup failures are fatal.
func Run(ctx context.Context, opts Options, rows []manifest.Row) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.New(logger)
	}
	cfg := opts.Config

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	metaPath := filepath.Join(cfg.OutputDir, config.MetadataFileName)
	// The metadata log stays open in append mode for the whole run; each row's
	// lines are a strict suffix after the previous row's.
	metaFile, err := os.OpenFile(metaPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open metadata log %s: %w", metaPath, err)
	}
	defer metaFile.Close()

	p := &pipeline{opts: opts, logger: logger, metaFile: metaFile}

	runStart := time.Now()
	runID := strconv.FormatInt(runStart.UnixNano(), 10)
	opts.Journal.Event(ctx, runID, journal.TypeRun, journal.EventRunStart, "", cfg.OutputDir,
		fmt.Sprintf("rows=%d start=%d", len(rows), cfg.StartIndex), nil)

	res := Result{
		RowsLoaded:   len(rows),
		FinalCounter: cfg.StartIndex,
		MetadataPath: metaPath,
	}
	counter := cfg.StartIndex

	for i, row := range rows {
		select {
		case <-ctx.Done():
			logger.Warn("Run cancelled before processing all rows.", slog.Int("next_row", i), "error", ctx.Err())
			res.FinalCounter = counter
			return res, nil
		default:
		}

		l := logger.With(slog.Int("row", i), slog.Int("total_rows", len(rows)))
		p.notify(Update{RowIndex: i, TotalRows: len(rows), Status: "Processing"})
		opts.Journal.Event(ctx, strconv.Itoa(i), journal.TypeRow, journal.EventRowStart, "", "", "", nil)

		rowStart := time.Now()
		end, status, zipURL, err := p.processRow(ctx, l, row, counter)
		rowDuration := time.Since(rowStart)

		outcome := RowOutcome{
			Index:        i,
			ZipURL:       zipURL,
			Status:       status,
			ImagesSaved:  end - counter,
			CounterStart: counter,
			CounterEnd:   end,
			Duration:     rowDuration,
		}
		if err != nil {
			outcome.ErrMsg = err.Error()
			res.RowsFailed++
			l.Error("Error processing row.", "error", err, slog.Duration("duration", rowDuration.Round(time.Millisecond)))
			opts.Journal.Event(ctx, strconv.Itoa(i), journal.TypeRow, journal.EventError, zipURL, "", err.Error(), &rowDuration)
		} else {
			event := journal.EventRowEnd
			if status == StatusSkipped {
				event = journal.EventRowSkip
			}
			opts.Journal.Event(ctx, strconv.Itoa(i), journal.TypeRow, event, zipURL, "",
				fmt.Sprintf("images=%d", outcome.ImagesSaved), &rowDuration)
		}

		res.Outcomes = append(res.Outcomes, outcome)
		res.ImagesSaved += outcome.ImagesSaved
		counter = end

		p.notify(Update{
			RowIndex:    i,
			TotalRows:   len(rows),
			ZipURL:      zipURL,
			Status:      displayStatus(status),
			ImagesSaved: outcome.ImagesSaved,
			ErrMsg:      outcome.ErrMsg,
		})
	}

	res.FinalCounter = counter
	runDuration := time.Since(runStart)
	opts.Journal.Event(ctx, runID, journal.TypeRun, journal.EventRunEnd, "", cfg.OutputDir,
		fmt.Sprintf("images=%d final_counter=%d failed_rows=%d", res.ImagesSaved, counter, res.RowsFailed), &runDuration)

	logger.Info("Run complete.",
		slog.Int("rows", len(rows)),
		slog.Int("rows_failed", res.RowsFailed),
		slog.Int("images_saved", res.ImagesSaved),
		slog.Int("final_counter", counter),
		slog.String("output_dir", cfg.OutputDir),
		slog.String("metadata_path", metaPath),
		slog.Duration("duration", runDuration.Round(time.Millisecond)))
	return res, nil
}

// processRow handles one manifest row and returns the counter after it. The
// returned counter always reflects exactly the images fully written to disk:
// a mid-row failure keeps the partial progress and the driver resumes
// numbering after it.
func (p *pipeline) processRow(ctx context.Context, l *slog.Logger, row manifest.Row, counterStart int) (int, string, string, error) {
	cfg := p.opts.Config

	rawURL, _ := row.Field(cfg.ZipURLField)
	zipURL := strings.TrimSpace(rawURL)
	jsonText, _ := row.Field(cfg.JSONField)
	items := metadata.Parse(jsonText, l)

	if zipURL == "" {
		l.Info("Skipping row without archive URL.", slog.String("field", cfg.ZipURLField))
		return counterStart, StatusSkipped, "", nil
	}
	if len(items) == 0 {
		l.Info("Skipping row with empty or invalid metadata.", slog.String("field", cfg.JSONField))
		return counterStart, StatusSkipped, zipURL, nil
	}

	downloadStart := time.Now()
	p.opts.Journal.Event(ctx, zipURL, journal.TypeZip, journal.EventDownloadStart, "", "", "", nil)
	data, err := p.opts.Fetcher.Fetch(ctx, zipURL)
	downloadDuration := time.Since(downloadStart)
	if err != nil {
		// Attempt and give-up logs come from the fetcher.
		p.opts.Journal.Event(ctx, zipURL, journal.TypeZip, journal.EventError, "", "", err.Error(), &downloadDuration)
		return counterStart, StatusError, zipURL, fmt.Errorf("download %s: %w", zipURL, err)
	}
	p.opts.Journal.Event(ctx, zipURL, journal.TypeZip, journal.EventDownloadEnd, "", "",
		fmt.Sprintf("bytes=%d", len(data)), &downloadDuration)

	entries, err := archive.Decode(data)
	if err != nil {
		return counterStart, StatusError, zipURL, fmt.Errorf("decode archive %s: %w", zipURL, err)
	}
	if len(entries) == 0 {
		l.Warn("Archive contained no entries.", slog.String("zip_url", zipURL))
		return counterStart, StatusSkipped, zipURL, nil
	}

	tags := metadata.Match(items)

	counter := counterStart
	for _, name := range sortedFilenames(tags) {
		content, ok := entries[name]
		if !ok {
			l.Warn("Filename listed in metadata but missing from archive.", slog.String("filename", name))
			continue
		}
		tag := tags[name]

		counter++
		outPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%d.heif", counter))
		if err := os.WriteFile(outPath, content, 0o644); err != nil {
			return counter - 1, StatusError, zipURL, fmt.Errorf("write image %s: %w", outPath, err)
		}
		if _, err := fmt.Fprintf(p.metaFile, "%s, %s\n", tag.Barcode, tag.Source); err != nil {
			return counter - 1, StatusError, zipURL, fmt.Errorf("append metadata line for %s: %w", outPath, err)
		}
	}

	l.Debug("Row processed.", slog.String("zip_url", zipURL), slog.Int("images_saved", counter-counterStart))
	return counter, StatusComplete, zipURL, nil
}

func (p *pipeline) notify(u Update) {
	if p.opts.Progress != nil {
		p.opts.Progress(u)
	}
}

func displayStatus(status string) string {
	switch status {
	case StatusComplete:
		return "Complete"
	case StatusSkipped:
		return "Skipped"
	case StatusError:
		return "Error"
	default:
		return status
	}
}
