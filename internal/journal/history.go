package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DisplayHistory queries and prints the most recent journal entries.
func (j *Journal) DisplayHistory(ctx context.Context, subjectTypeFilter, eventFilter string, limit int) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal database is not open")
	}

	query := `
        SELECT subject, subject_type, event, event_timestamp, message, duration_ms, source_url, output_path
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
	query += fmt.Sprintf(" ORDER BY event_timestamp DESC, log_id DESC LIMIT $%d", argCounter)
	args = append(args, limit)

	fmt.Printf("--- Event Log History (Limit %d) ---\n", limit)
	fmt.Printf("%-50s | %-6s | %-15s | %-25s | %-10s | %s\n", "Subject", "Type", "Event", "Timestamp (UTC)", "DurationMS", "Message/Details")
	fmt.Println(strings.Repeat("-", 140))

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query event log: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var subject, subjectType, event string
		var timestamp time.Time
		var message, sourceURL, outputPath sql.NullString
		var durationMs sql.NullInt64
		if err := rows.Scan(&subject, &subjectType, &event, &timestamp, &message, &durationMs, &sourceURL, &outputPath); err != nil {
			return fmt.Errorf("failed to scan event log row: %w", err)
		}

		durationStr := ""
		if durationMs.Valid {
			durationStr = fmt.Sprintf("%d", durationMs.Int64)
		}

		details := message.String
		if sourceURL.Valid && sourceURL.String != "" {
			details += fmt.Sprintf(" (Source: %s)", filepath.Base(sourceURL.String))
		}
		if outputPath.Valid && outputPath.String != "" {
			details += fmt.Sprintf(" (Output: %s)", filepath.Base(outputPath.String))
		}

		fmt.Printf("%-50s | %-6s | %-15s | %-25s | %-10s | %s\n",
			subject, subjectType, event, timestamp.Format(time.RFC3339), durationStr, details)
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating event log rows: %w", err)
	}
	fmt.Printf("Displayed %d records.\n", count)
	return nil
}
