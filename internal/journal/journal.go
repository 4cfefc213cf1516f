package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Event types recorded during a run.
const (
	EventRunStart      = "run_start"
	EventRunEnd        = "run_end"
	EventRowStart      = "row_start"
	EventRowEnd        = "row_end"
	EventRowSkip       = "row_skip"
	EventDownloadStart = "download_start"
	EventDownloadEnd   = "download_end"
	EventError         = "error"
)

// Subject types.
const (
	TypeRun = "run"
	TypeRow = "row"
	TypeZip = "zip"
)

const schemaSequenceSQL = `CREATE SEQUENCE IF NOT EXISTS event_log_id_seq;`
const schemaTableSQL = `
CREATE TABLE IF NOT EXISTS shelfex_event_log (
    log_id          BIGINT PRIMARY KEY DEFAULT nextval('event_log_id_seq'),
    subject         VARCHAR NOT NULL,      -- zip URL, row index, or run id
    subject_type    VARCHAR NOT NULL,      -- 'run', 'row', 'zip'
    event           VARCHAR NOT NULL,
    event_timestamp TIMESTAMP NOT NULL,
    source_url      VARCHAR,
    output_path     VARCHAR,
    message         VARCHAR,
    duration_ms     BIGINT
);
CREATE INDEX IF NOT EXISTS idx_shelfex_event_log_subject ON shelfex_event_log (subject, subject_type);
CREATE INDEX IF NOT EXISTS idx_shelfex_event_log_event_time ON shelfex_event_log (event, event_timestamp);
`

// Journal records pipeline events into a DuckDB database. It is strictly an
// audit trail: nothing in the pipeline reads it back to decide what to do.
// A nil Journal is valid and records nothing, which keeps the extractor
// testable without a database.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the DuckDB database at path, initializes the schema, and
// returns a ready Journal. Use ":memory:" for an ephemeral journal.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb database (%s): %w", path, err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping duckdb database (%s): %w", path, err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSequenceSQL); err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("failed to execute sequence setup: %w", err)
	}
	if _, err := db.Exec(schemaTableSQL); err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("failed to execute table/index setup: %w", err)
	}
	return nil
}

// Event inserts one record. Insert failures are logged at warning severity
// and swallowed; journaling must never abort row processing.
func (j *Journal) Event(ctx context.Context, subject, subjectType, event, sourceURL, outputPath, message string, duration *time.Duration) {
	if j == nil || j.db == nil {
		return
	}
	query := `
        INSERT INTO shelfex_event_log (subject, subject_type, event, event_timestamp, source_url, output_path, message, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?);
    `
	var durationMs sql.NullInt64
	if duration != nil {
		durationMs = sql.NullInt64{Int64: duration.Milliseconds(), Valid: true}
	}

	_, err := j.db.ExecContext(ctx, query,
		subject,
		subjectType,
		event,
		time.Now().UTC(),
		sql.NullString{String: sourceURL, Valid: sourceURL != ""},
		sql.NullString{String: outputPath, Valid: outputPath != ""},
		sql.NullString{String: message, Valid: message != ""},
		durationMs,
	)
	if err != nil {
		l := j.logger
		if l == nil {
			l = slog.Default()
		}
		l.Warn("Failed to journal event.", slog.String("event", event), slog.String("subject", subject), "error", err)
	}
}

// Record is one journal entry as read back for reporting.
type Record struct {
	Subject     string
	SubjectType string
	Event       string
	Timestamp   time.Time
	SourceURL   string
	OutputPath  string
	Message     string
	DurationMs  int64
	HasDuration bool
}

// Records returns journal entries in chronological order, optionally filtered
// by subject type and event. A non-positive limit returns everything.
func (j *Journal) Records(ctx context.Context, subjectTypeFilter, eventFilter string, limit int) ([]Record, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}

	query := `
        SELECT subject, subject_type, event, event_timestamp, source_url, output_path, message, duration_ms
        FROM shelfex_event_log
    `
	conditions := []string{}
	args := []any{}
	argCounter := 1

	if subjectTypeFilter != "" {
		conditions = append(conditions, fmt.Sprintf("subject_type = $%d", argCounter))
		args = append(args, subjectTypeFilter)
		argCounter++
	}
	if eventFilter != "" {
		conditions = append(conditions, fmt.Sprintf("event = $%d", argCounter))
		args = append(args, eventFilter)
		argCounter++
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY event_timestamp ASC, log_id ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCounter)
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event log: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var sourceURL, outputPath, message sql.NullString
		var durationMs sql.NullInt64
		if err := rows.Scan(&rec.Subject, &rec.SubjectType, &rec.Event, &rec.Timestamp, &sourceURL, &outputPath, &message, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan event log row: %w", err)
		}
		rec.SourceURL = sourceURL.String
		rec.OutputPath = outputPath.String
		rec.Message = message.String
		rec.DurationMs = durationMs.Int64
		rec.HasDuration = durationMs.Valid
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event log rows: %w", err)
	}
	return records, nil
}
