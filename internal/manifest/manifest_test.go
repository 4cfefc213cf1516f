package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadRowsPreservesOrder(t *testing.T) {
	path := writeManifest(t, "SHELF_TAGS,NOTE\nhttp://a.example/a.zip,first\nhttp://b.example/b.zip,second\n")

	rows, err := ReadRows(path, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first, ok := rows[0].Field("SHELF_TAGS")
	require.True(t, ok)
	require.Equal(t, "http://a.example/a.zip", first)

	second, ok := rows[1].Field("NOTE")
	require.True(t, ok)
	require.Equal(t, "second", second)
}

func TestReadRowsLimitStopsReading(t *testing.T) {
	path := writeManifest(t, "URL\nu1\nu2\nu3\nu4\nu5\n")

	rows, err := ReadRows(path, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestReadRowsMissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv"), 0)
	require.Error(t, err)
}

func TestReadRowsEmptyFile(t *testing.T) {
	path := writeManifest(t, "")
	_, err := ReadRows(path, 0)
	require.Error(t, err)
}

func TestFieldWhitespaceTolerantLookup(t *testing.T) {
	row := NewRow(
		[]string{" SHELF_TAGS ", "SHELF _TAGS_IMAGES_URL", "OTHER"},
		map[string]string{
			" SHELF_TAGS ":           "http://x.example/x.zip",
			"SHELF _TAGS_IMAGES_URL": "[]",
			"OTHER":                  "y",
		},
	)

	tests := []struct {
		name   string
		lookup string
		want   string
		found  bool
	}{
		{"padded header", "SHELF_TAGS", "http://x.example/x.zip", true},
		{"embedded space header", "SHELF_TAGS_IMAGES_URL", "[]", true},
		{"exact match", "OTHER", "y", true},
		{"padded target", "  OTHER  ", "y", true},
		{"absent", "MISSING", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := row.Field(tc.lookup)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFieldExactMatchWins(t *testing.T) {
	row := NewRow(
		[]string{"A B", "AB"},
		map[string]string{"A B": "spaced", "AB": "exact"},
	)
	got, ok := row.Field("AB")
	require.True(t, ok)
	require.Equal(t, "exact", got)
}

func TestReadRowsRaggedRow(t *testing.T) {
	path := writeManifest(t, "A,B,C\n1,2\n")
	rows, err := ReadRows(path, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	c, ok := rows[0].Field("C")
	require.True(t, ok)
	require.Equal(t, "", c)
}
