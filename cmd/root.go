package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"shelfex/internal/journal"
)

var (
	// Persistent flags - bound in init()
	dbPath    string
	logFormat string
	logLevel  string
	logOutput string

	// Global instances populated in PersistentPreRunE
	rootLogger *slog.Logger
	runJournal *journal.Journal
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shelfex",
	Short: "Extract shelf-tag images and metadata from manifest-listed archives.",
	Long: `Shelfex ingests a CSV manifest describing remote ZIP archives of shelf-tag
images, downloads each archive, matches the images against their JSON sidecar
metadata, and writes sequentially numbered image files plus a shared
metadata log. A DuckDB event journal records what happened during each run.

The primary command is 'extract'. Other commands generate a manifest from an
HTML index page, export a Parquet report, or view the event journal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		// --- 1. Initialize Logger ---
		var level slog.Level
		switch strings.ToLower(logLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var logWriter io.Writer = os.Stderr
		if logOutput != "" && strings.ToLower(logOutput) != "stderr" {
			if strings.ToLower(logOutput) == "stdout" {
				logWriter = os.Stdout
			} else {
				f, err := os.OpenFile(logOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("failed to open log file %s: %w", logOutput, err)
				}
				// The OS reclaims the handle on exit; fine for a CLI tool.
				logWriter = f
			}
		}

		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if logFormat == "json" {
			handler = slog.NewJSONHandler(logWriter, opts)
		} else {
			handler = slog.NewTextHandler(logWriter, opts)
		}
		rootLogger = slog.New(handler)
		slog.SetDefault(rootLogger)
		rootLogger.Debug("Logger initialized", "level", level.String(), "format", logFormat, "output", logOutput)

		// --- 2. Open the event journal ---
		if dbPath == "" {
			return fmt.Errorf("--db-path is required (use :memory: for an ephemeral journal)")
		}
		if dbPath != ":memory:" {
			dbDir := filepath.Dir(dbPath)
			if err := os.MkdirAll(dbDir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
		var err error
		runJournal, err = journal.Open(dbPath, rootLogger)
		if err != nil {
			return fmt.Errorf("failed to open event journal: %w", err)
		}
		rootLogger.Debug("Event journal ready.", "path", dbPath)

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if runJournal != nil {
			if err := runJournal.Close(); err != nil {
				rootLogger.Error("Failed to close event journal cleanly", "error", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	rootCmd.AddCommand(extractCmd)  // Core pipeline
	rootCmd.AddCommand(discoverCmd) // Build manifest from an HTML index
	rootCmd.AddCommand(reportCmd)   // Export journal to Parquet
	rootCmd.AddCommand(stateCmd)    // View journal history

	err := rootCmd.Execute()
	if err != nil {
		if rootLogger != nil {
			rootLogger.Error("Command execution failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "./shelfex_state.duckdb", "Path to DuckDB event journal file (:memory: for in-memory)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format (text or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stderr", "Log output destination (stderr, stdout, or file path)")

	rootCmd.Version = "0.1.0"
}

// Helper to get logger (could use context propagation instead)
func getLogger() *slog.Logger {
	if rootLogger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return rootLogger
}

// Helper to get the journal
func getJournal() *journal.Journal {
	return runJournal
}
