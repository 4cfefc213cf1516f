package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

const (
	// DefaultMaxRetries is the number of download attempts per URL.
	DefaultMaxRetries = 3
	// DefaultTimeout bounds a single download attempt.
	DefaultTimeout = 60 * time.Second

	maxBackoff = 10 * time.Second
)

// --- List of Realistic User Agents ---
var commonUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1",
}

// RandomUserAgent returns a browser-like User-Agent header value.
func RandomUserAgent() string {
	if len(commonUserAgents) == 0 {
		return "shelfex/0.1 (Go-client)"
	}
	return commonUserAgents[rand.Intn(len(commonUserAgents))]
}

// DefaultHTTPClient creates a default http.Client with the per-attempt timeout.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Fetcher downloads raw bytes with bounded retry and exponential backoff.
type Fetcher struct {
	Client     *http.Client
	MaxRetries int
	Logger     *slog.Logger

	// Backoff maps an attempt number to the wait before the next attempt.
	// Left nil, it uses min(2^attempt, 10) seconds.
	Backoff func(attempt int) time.Duration
}

// New returns a Fetcher with the default client and retry policy.
func New(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		Client:     DefaultHTTPClient(),
		MaxRetries: DefaultMaxRetries,
		Logger:     logger,
	}
}

// Fetch issues GET requests for url until one succeeds or MaxRetries attempts
// are exhausted. Each failed attempt is logged at warning severity; exhaustion
// is logged at error severity and returns the last error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	retries := f.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		data, err := f.attempt(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		f.logger().Warn("Download failed.",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", retries),
			slog.String("url", url),
			"error", err)

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(lastErr, ctx.Err())
		case <-time.After(f.backoff(attempt)):
		}
	}

	f.logger().Error("Giving up download.", slog.String("url", url), "error", lastErr)
	return nil, lastErr
}

func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", RandomUserAgent())
	req.Header.Set("Accept", "*/*")

	client := f.Client
	if client == nil {
		client = DefaultHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do request for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read some of the body for context on error
		limitReader := io.LimitReader(resp.Body, 512)
		bodyBytes, _ := io.ReadAll(limitReader)
		return nil, fmt.Errorf("bad status '%s' fetching %s: %s", resp.Status, url, string(bodyBytes))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading body from %s: %w", url, err)
	}
	return bodyBytes, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	if f.Backoff != nil {
		return f.Backoff(attempt)
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
