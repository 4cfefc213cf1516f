package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Row is one manifest record. It keeps the header order from the source file
// so field lookups resolve deterministically when headers only differ by
// whitespace.
type Row struct {
	columns []string
	cells   map[string]string
}

// NewRow builds a row from an ordered header slice and its cell values.
func NewRow(columns []string, cells map[string]string) Row {
	return Row{columns: columns, cells: cells}
}

// Field returns the value for a logical column name. An exact header match
// wins; otherwise headers are compared with all whitespace stripped, and the
// first matching column in source order is returned.
func (r Row) Field(name string) (string, bool) {
	if v, ok := r.cells[name]; ok {
		return v, true
	}
	want := stripSpace(name)
	for _, col := range r.columns {
		if stripSpace(col) == want {
			return r.cells[col], true
		}
	}
	return "", false
}

// Columns returns the header names in source order.
func (r Row) Columns() []string {
	return r.columns
}

// ReadRows loads manifest rows from a CSV file with a header row, preserving
// source order. When limit is positive, reading stops after that many data
// rows; the remainder of the file is never parsed.
func ReadRows(path string, limit int) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // rows may be ragged

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("manifest %s is empty, expected a header row", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest header %s: %w", path, err)
	}

	var rows []Row
	for limit <= 0 || len(rows) < limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest %s row %d: %w", path, len(rows)+1, err)
		}
		cells := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				cells[col] = record[i]
			} else {
				cells[col] = ""
			}
		}
		rows = append(rows, Row{columns: header, cells: cells})
	}
	return rows, nil
}

func stripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
