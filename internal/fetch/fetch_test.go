package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testFetcher(client *http.Client) *Fetcher {
	return &Fetcher{
		Client:     client,
		MaxRetries: 3,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Backoff:    func(int) time.Duration { return 0 },
	}
}

func TestFetchSucceedsFirstAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		require.Equal(t, "*/*", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	data, err := testFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("eventually"))
	}))
	defer srv.Close()

	data, err := testFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("eventually"), data)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	data, err := testFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Nil(t, data)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := testFetcher(srv.Client())
	f.Backoff = func(int) time.Duration { return time.Minute }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelayCapped(t *testing.T) {
	f := &Fetcher{}
	require.Equal(t, 2*time.Second, f.backoff(1))
	require.Equal(t, 4*time.Second, f.backoff(2))
	require.Equal(t, 8*time.Second, f.backoff(3))
	require.Equal(t, 10*time.Second, f.backoff(4))
	require.Equal(t, 10*time.Second, f.backoff(8))
}
