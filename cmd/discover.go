package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"shelfex/internal/config"
	"shelfex/internal/discover"
	"shelfex/internal/fetch"
)

var (
	discoverURL      string
	discoverManifest string
	discoverColumn   string
)

// discoverCmd builds a starter manifest from a directory-listing page.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan an HTML index page for ZIP links and write a manifest CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		ctx := context.Background()

		urls, err := discover.ZipURLs(ctx, fetch.DefaultHTTPClient(), discoverURL, logger)
		if err != nil {
			return fmt.Errorf("discover zip links: %w", err)
		}
		if len(urls) == 0 {
			logger.Warn("No ZIP links found on index page.", slog.String("url", discoverURL))
			return nil
		}

		if err := discover.WriteManifest(discoverManifest, discoverColumn, urls); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		logger.Info("Manifest written.",
			slog.Int("archives", len(urls)),
			slog.String("path", discoverManifest),
			slog.String("column", discoverColumn))
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverURL, "url", "u", "", "HTML index page to scan for .zip links")
	discoverCmd.Flags().StringVarP(&discoverManifest, "manifest", "m", "", "Output path for the generated manifest CSV")
	discoverCmd.Flags().StringVar(&discoverColumn, "zip-field", config.DefaultZipURLField, "Header name for the archive URL column")

	_ = discoverCmd.MarkFlagRequired("url")
	_ = discoverCmd.MarkFlagRequired("manifest")
}
