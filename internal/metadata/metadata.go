package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Tag is the metadata retained for one archive member.
type Tag struct {
	Barcode string
	Source  string
}

var allZeros = regexp.MustCompile(`^0+$`)

// Parse decodes a JSON sidecar cell into its raw array elements. Empty text,
// malformed JSON, or a non-array payload all yield nil; parse failures are
// logged at warning severity, never returned.
func Parse(text string, logger *slog.Logger) []any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(text))
	// Barcodes can arrive as JSON numbers; UseNumber keeps their digits exact.
	dec.UseNumber()

	var v any
	err := dec.Decode(&v)
	if err == nil {
		// Anything after the first value makes the whole cell malformed.
		if trailing := dec.Decode(new(any)); !errors.Is(trailing, io.EOF) {
			err = fmt.Errorf("trailing content after JSON value")
		}
	}
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("Failed to parse metadata JSON.", slog.Int("length", len(text)), "error", err)
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	return items
}

// Match builds the filename -> tag mapping from parsed sidecar elements.
// Elements are dropped when they are not objects, when
// uploaded_image.image_filename is empty after trimming, or when the barcode
// is absent, JSON null, the literal string "null", empty, or all zero digits.
// Duplicate filenames: the later element wins.
func Match(items []any) map[string]Tag {
	tags := make(map[string]Tag)
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		uploaded, _ := obj["uploaded_image"].(map[string]any)
		name, _ := uploaded["image_filename"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		barcode := strings.TrimSpace(stringifyValue(obj["barcode"]))
		if barcode == "" || allZeros.MatchString(barcode) {
			continue
		}
		source := strings.TrimSpace(stringifyValue(obj["barcode_detection_source"]))

		tags[name] = Tag{Barcode: barcode, Source: source}
	}
	return tags
}

// stringifyValue renders a decoded JSON value as text, mapping JSON null and
// the literal string "null" to the empty string.
func stringifyValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if t == "null" {
			return ""
		}
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
