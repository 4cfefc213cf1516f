package discover

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/html"

	"shelfex/internal/fetch"
)

// ZipURLs fetches an HTML index page and returns the absolute URLs of every
// .zip link on it, deduplicated, in document order.
func ZipURLs(ctx context.Context, client *http.Client, indexURL string, logger *slog.Logger) ([]string, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index URL %s: %w", indexURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", indexURL, err)
	}
	req.Header.Set("User-Agent", fetch.RandomUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", indexURL, err)
	}
	bodyBytes, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status '%s' fetching %s", resp.Status, indexURL)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read body from %s: %w", indexURL, readErr)
	}

	root, err := html.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML %s: %w", indexURL, err)
	}

	links := parseLinks(root, ".zip")
	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		abs, err := base.Parse(link)
		if err != nil {
			logger.Warn("Failed to resolve relative link.", slog.String("link", link), "error", err)
			continue
		}
		absURL := abs.String()
		if seen[absURL] {
			continue
		}
		seen[absURL] = true
		out = append(out, absURL)
	}
	logger.Debug("Index scan complete.", slog.String("index_url", indexURL), slog.Int("zip_links", len(out)))
	return out, nil
}

// WriteManifest writes a single-column CSV manifest with the given header.
func WriteManifest(path, column string, urls []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{column}); err != nil {
		f.Close()
		return fmt.Errorf("write manifest header: %w", err)
	}
	for _, u := range urls {
		if err := w.Write([]string{u}); err != nil {
			f.Close()
			return fmt.Errorf("write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush manifest %s: %w", path, err)
	}
	return f.Close()
}

// parseLinks finds href values ending with suffix in an HTML node tree.
func parseLinks(n *html.Node, suffix string) []string {
	var out []string
	var walk func(*html.Node)

	walk = func(nd *html.Node) {
		if nd.Type == html.ElementNode && nd.Data == "a" {
			for _, a := range nd.Attr {
				if a.Key == "href" {
					if strings.HasSuffix(strings.ToLower(a.Val), strings.ToLower(suffix)) && a.Val != "/" {
						out = append(out, a.Val)
					}
					break
				}
			}
		}
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return out
}
