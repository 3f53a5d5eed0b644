package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrRendererDisabled indicates headless rendering is disabled via config.
var ErrRendererDisabled = errors.New("packet renderer disabled")

// PacketConfig controls the headless Chrome renderer.
type PacketConfig struct {
	Enabled     bool
	UserAgent   string
	NavTimeout  time.Duration
	RawSelector string
}

// withDefaults fills the zero-valued fields with the renderer defaults.
func (cfg PacketConfig) withDefaults() PacketConfig {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 25 * time.Second
	}
	if cfg.RawSelector == "" {
		cfg.RawSelector = ".jv-code"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "spacepi-harvester/0.1"
	}
	return cfg
}

// PacketRenderer renders a TinyGS packet page with headless Chrome and
// captures the raw parsed telemetry JSON. The TinyGS console builds the raw
// view client-side, so a plain GET never sees it.
type PacketRenderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	timeout         time.Duration
	selector        string
	logger          *zap.Logger
}

// NewPacketRenderer warms up a shared browser. The renderer is safe for
// sequential use; packet scraping is single-threaded like the harvest walk.
func NewPacketRenderer(cfg PacketConfig, logger *zap.Logger) (*PacketRenderer, error) {
	if !cfg.Enabled {
		return nil, ErrRendererDisabled
	}
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &PacketRenderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		timeout:         cfg.NavTimeout,
		selector:        cfg.RawSelector,
		logger:          logger,
	}, nil
}

// RawPacket navigates to the packet page and returns the raw parsed JSON.
func (r *PacketRenderer) RawPacket(ctx context.Context, rawURL string) ([]byte, error) {
	if r == nil {
		return nil, ErrRendererDisabled
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTask()

	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	var raw string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.WaitVisible(r.selector, chromedp.ByQuery),
		chromedp.Text(r.selector, &raw, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render packet %s: %w", rawURL, err)
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("packet %s: raw view is not valid json", rawURL)
	}
	return []byte(raw), nil
}

// Close tears down the shared browser and allocator.
func (r *PacketRenderer) Close() {
	if r == nil {
		return
	}
	r.browserCancel()
	r.allocatorCancel()
}

// forwardCancel cancels the task when the caller's context finishes first.
func forwardCancel(ctx context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
