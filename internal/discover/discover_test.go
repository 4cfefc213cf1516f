package discover

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"shelfex/internal/manifest"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestZipURLsResolvesAndDeduplicates(t *testing.T) {
	page := `<html><body>
		<a href="archive/batch_1.zip">batch 1</a>
		<a href="/absolute/batch_2.zip">batch 2</a>
		<a href="archive/batch_1.zip">batch 1 again</a>
		<a href="https://elsewhere.example/batch_3.ZIP">batch 3</a>
		<a href="notes.txt">notes</a>
		<a href="/">home</a>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	urls, err := ZipURLs(context.Background(), srv.Client(), srv.URL+"/index.html", testLogger)
	require.NoError(t, err)
	require.Equal(t, []string{
		srv.URL + "/archive/batch_1.zip",
		srv.URL + "/absolute/batch_2.zip",
		"https://elsewhere.example/batch_3.ZIP",
	}, urls)
}

func TestZipURLsNoLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer srv.Close()

	urls, err := ZipURLs(context.Background(), srv.Client(), srv.URL, testLogger)
	require.NoError(t, err)
	require.Empty(t, urls)
}

func TestZipURLsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := ZipURLs(context.Background(), srv.Client(), srv.URL, testLogger)
	require.Error(t, err)
}

func TestWriteManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	urls := []string{
		"https://example.com/a.zip",
		"https://example.com/b.zip",
	}
	require.NoError(t, WriteManifest(path, "SHELF_TAGS", urls))

	rows, err := manifest.ReadRows(path, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for i, want := range urls {
		got, ok := rows[i].Field("SHELF_TAGS")
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestWriteManifestCreateError(t *testing.T) {
	err := WriteManifest(filepath.Join(t.TempDir(), "missing", "manifest.csv"), "SHELF_TAGS", nil)
	require.Error(t, err)
}
