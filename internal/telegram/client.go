// Package telegram implements the archive transport over Telegram's public
// channel preview (t.me/s/<channel>), which pages history with a ?before=<id>
// parameter. No API credentials are required for public channels.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
)

// Config controls the preview HTTP client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

const (
	defaultBaseURL   = "https://t.me"
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "spacepi-harvester/0.1"
)

// Client resolves channels and opens history sessions. It implements
// harvest.Archive.
type Client struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Client with config defaults applied.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, logger: logger}
}

func (c *Client) newHTTP() *resty.Client {
	return resty.New().
		SetBaseURL(c.cfg.BaseURL).
		SetTimeout(c.cfg.Timeout).
		SetHeader("User-Agent", c.cfg.UserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(3))
}

// ResolveChannel maps a channel name to its canonical identity by loading the
// preview page once. Unknown or private channels fail here.
func (c *Client) ResolveChannel(ctx context.Context, channel string) (harvest.ChannelInfo, error) {
	username := harvest.NormalizeChannelUsername(channel)
	if username == "" {
		return harvest.ChannelInfo{}, fmt.Errorf("channel name %q normalizes to nothing", channel)
	}

	resp, err := c.newHTTP().R().SetContext(ctx).Get("/s/" + username)
	if err != nil {
		return harvest.ChannelInfo{}, fmt.Errorf("resolve %s: %w", username, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return harvest.ChannelInfo{}, fmt.Errorf("resolve %s: unexpected status %d", username, resp.StatusCode())
	}

	pg, err := parsePreview(bytes.NewReader(resp.Body()))
	if err != nil {
		return harvest.ChannelInfo{}, fmt.Errorf("resolve %s: %w", username, err)
	}
	if !pg.hasChannel {
		return harvest.ChannelInfo{}, fmt.Errorf("resolve %s: no public preview (private or unknown channel)", username)
	}
	return harvest.ChannelInfo{Username: username, Title: pg.title}, nil
}

// Open establishes a history session for the channel.
func (c *Client) Open(_ context.Context, channel string) (harvest.Session, error) {
	username := harvest.NormalizeChannelUsername(channel)
	if username == "" {
		return nil, fmt.Errorf("channel name %q normalizes to nothing", channel)
	}
	return &session{parent: c, username: username, http: c.newHTTP()}, nil
}

type session struct {
	parent   *Client
	username string
	http     *resty.Client
}

// FetchPage walks preview pages until limit entries strictly older than
// before are gathered, returning them newest-to-oldest. The preview serves
// roughly twenty messages per page, so one batch may span several requests
// over the same connection.
func (s *session) FetchPage(ctx context.Context, before *harvest.Cursor, limit int) ([]harvest.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	var out []harvest.Entry
	var next int64
	if before != nil {
		next = before.ID
	}

	for len(out) < limit {
		req := s.http.R().SetContext(ctx)
		if next > 0 {
			req.SetQueryParam("before", strconv.FormatInt(next, 10))
		}
		resp, err := req.Get("/s/" + s.username)
		if err != nil {
			return nil, fmt.Errorf("fetch page before=%d: %w", next, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("fetch page before=%d: unexpected status %d", next, resp.StatusCode())
		}

		pg, err := parsePreview(bytes.NewReader(resp.Body()))
		if err != nil {
			return nil, fmt.Errorf("fetch page before=%d: %w", next, err)
		}
		if len(pg.entries) == 0 {
			break
		}

		// DOM order is oldest-to-newest; walk backwards for newest-first and
		// keep the strictly-older contract even if the server over-serves.
		for i := len(pg.entries) - 1; i >= 0 && len(out) < limit; i-- {
			e := pg.entries[i]
			if next > 0 && e.ID >= next {
				continue
			}
			out = append(out, e)
		}

		prev := next
		next = pg.entries[0].ID
		if prev > 0 && next >= prev {
			break
		}
	}
	return out, nil
}

// Reconnect drops the current connection pool and starts a fresh one.
func (s *session) Reconnect(_ context.Context) error {
	s.http.GetClient().CloseIdleConnections()
	s.http = s.parent.newHTTP()
	s.parent.logger.Debug("telegram preview session reconnected",
		zap.String("channel", s.username),
	)
	return nil
}

// Close releases the session's idle connections.
func (s *session) Close() error {
	s.http.GetClient().CloseIdleConnections()
	return nil
}
