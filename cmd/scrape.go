package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/snapshot"
)

var scrapeInput string

// newScrapeCmd creates the 'scrape' subcommand tree. Both subcommands read a
// snapshot JSON produced by a previous harvest run and process its links.
func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Processes links from a harvest snapshot",
	}

	cmd.PersistentFlags().StringVar(&scrapeInput, "input", "", "path to a harvest snapshot JSON file (required)")

	cmd.AddCommand(newScrapeTitlesCmd())
	cmd.AddCommand(newScrapePacketsCmd())

	return cmd
}

func newScrapeTitlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "titles",
		Short: "Fetches page titles for each harvested link",

		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := loadSnapshotRecords(scrapeInput)
			if err != nil {
				return err
			}

			scraper, err := a.Scraper()
			if err != nil {
				return err
			}
			done, err := scraper.Titles(cmd.Context(), recs)
			if err != nil {
				return fmt.Errorf("scrape titles: %w", err)
			}
			a.Logger.Info("titles scraped", zap.Int("processed", done), zap.Int("total", len(recs)))
			return nil
		},
	}
}

func newScrapePacketsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packets",
		Short: "Renders harvested links headlessly and captures raw packet JSON",

		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := loadSnapshotRecords(scrapeInput)
			if err != nil {
				return err
			}

			scraper, err := a.Scraper()
			if err != nil {
				return err
			}
			done, err := scraper.Packets(cmd.Context(), a.Config.Harvest.SearchTerm, recs)
			if err != nil {
				return fmt.Errorf("scrape packets: %w", err)
			}
			a.Logger.Info("packets captured", zap.Int("processed", done), zap.Int("total", len(recs)))
			return nil
		},
	}
}

// loadSnapshotRecords reads a snapshot JSON file back into harvester records.
// Snapshot dates are human-formatted, so only the URL and entry id survive
// the round trip; the scrapers need nothing else.
func loadSnapshotRecords(path string) ([]harvest.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var entries []snapshot.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	recs := make([]harvest.Record, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, harvest.Record{URL: e.URL, EntryID: e.EntryID})
	}
	return recs, nil
}
