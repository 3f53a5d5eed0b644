package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/storage"
)

// Scraper walks collected records and stores derived artifacts through the
// blob provider. Per-record failures are logged and skipped; only transport
// setup problems abort the walk.
type Scraper struct {
	previews *PreviewFetcher
	renderer *PacketRenderer
	store    storage.Provider
	logger   *zap.Logger
}

// NewScraper builds a Scraper. renderer may be nil when headless rendering
// is disabled.
func NewScraper(previews *PreviewFetcher, renderer *PacketRenderer, store storage.Provider, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{previews: previews, renderer: renderer, store: store, logger: logger}
}

// Titles fetches each record's URL and stores its page title under
// processed/<entry id>.txt. Returns how many titles were stored.
func (s *Scraper) Titles(ctx context.Context, recs []harvest.Record) (int, error) {
	if s.previews == nil {
		return 0, fmt.Errorf("preview fetcher not configured")
	}
	stored := 0
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		title, err := s.previews.Title(ctx, rec.URL)
		if err != nil {
			s.logger.Warn("title fetch failed",
				zap.String("url", rec.URL),
				zap.Error(err),
			)
			continue
		}
		object := fmt.Sprintf("processed/%d.txt", rec.EntryID)
		if _, err := s.store.Save(ctx, object, []byte(title+"\n")); err != nil {
			return stored, fmt.Errorf("store title for %s: %w", rec.URL, err)
		}
		s.logger.Info("title stored",
			zap.String("url", rec.URL),
			zap.String("title", title),
		)
		stored++
	}
	return stored, nil
}

// Packets renders each record's TinyGS page and stores the raw parsed JSON
// under packets/<term>/<entry timestamp>.json. Returns how many packets were
// stored.
func (s *Scraper) Packets(ctx context.Context, searchTerm string, recs []harvest.Record) (int, error) {
	if s.renderer == nil {
		return 0, ErrRendererDisabled
	}
	dir := "packets/" + pathSafe(searchTerm)
	stored := 0
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		raw, err := s.renderer.RawPacket(ctx, rec.URL)
		if err != nil {
			s.logger.Warn("packet render failed",
				zap.String("url", rec.URL),
				zap.Error(err),
			)
			continue
		}
		object := fmt.Sprintf("%s/%s.json", dir, packetStamp(rec.Timestamp))
		if _, err := s.store.Save(ctx, object, raw); err != nil {
			return stored, fmt.Errorf("store packet for %s: %w", rec.URL, err)
		}
		stored++
	}
	return stored, nil
}

func packetStamp(ts string) string {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return pathSafe(ts)
	}
	return parsed.Format("2006-01-02_15-04-05")
}

var pathReplacer = strings.NewReplacer("/", "_", ":", "-", " ", "_")

func pathSafe(s string) string {
	return pathReplacer.Replace(s)
}
