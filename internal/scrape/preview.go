// Package scrape post-processes collected telemetry links: page-title
// previews over plain HTTP and raw packet payloads via headless Chrome.
package scrape

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// PreviewConfig controls the colly collector behind title previews.
type PreviewConfig struct {
	UserAgent string
	Timeout   time.Duration
	Delay     time.Duration
}

// PreviewFetcher fetches a collected URL and extracts its page title.
type PreviewFetcher struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewPreviewFetcher constructs a configured colly-based fetcher.
func NewPreviewFetcher(cfg PreviewConfig, logger *zap.Logger) (*PreviewFetcher, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "spacepi-harvester/0.1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.SetRequestTimeout(cfg.Timeout)
	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, err
	}

	return &PreviewFetcher{base: base, logger: logger}, nil
}

type titleResult struct {
	title string
	err   error
}

// Title fetches rawURL and returns the trimmed <title> text. A page without
// a title yields "No Title", mirroring what downstream files expect.
func (f *PreviewFetcher) Title(ctx context.Context, rawURL string) (string, error) {
	collector := f.base.Clone()
	resultCh := make(chan titleResult, 1)
	var once sync.Once
	send := func(res titleResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnHTML("title", func(e *colly.HTMLElement) {
		send(titleResult{title: strings.TrimSpace(e.Text)})
	})
	collector.OnScraped(func(_ *colly.Response) {
		send(titleResult{title: "No Title"})
	})
	collector.OnError(func(resp *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if resp != nil && resp.StatusCode != 0 && resp.StatusCode != http.StatusOK {
			f.logger.Debug("preview fetch returned non-200",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
			)
		}
		send(titleResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return "", err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return res.title, res.err
	default:
		return "", errors.New("preview fetch produced no result")
	}
}
