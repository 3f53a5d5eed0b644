package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
)

// previewServer emulates t.me/s/<channel> paging: each request serves the
// pageSize newest messages strictly older than the before parameter, rendered
// oldest-first the way the real preview does.
type previewServer struct {
	lowID    int64
	highID   int64
	pageSize int
	requests int
}

func (p *previewServer) handler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		p.requests++
		if !strings.HasPrefix(r.URL.Path, "/s/") {
			http.NotFound(w, r)
			return
		}

		before := p.highID + 1
		if raw := r.URL.Query().Get("before"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			require.NoError(t, err)
			before = parsed
		}

		newest := before - 1
		if newest > p.highID {
			newest = p.highID
		}
		oldest := newest - int64(p.pageSize) + 1
		if oldest < p.lowID {
			oldest = p.lowID
		}

		var b strings.Builder
		b.WriteString(`<html><body><div class="tgme_channel_info">`)
		b.WriteString(`<div class="tgme_channel_info_header_title">TinyGS Telemetry</div></div>`)
		for id := oldest; id <= newest; id++ {
			fmt.Fprintf(&b, `<div class="tgme_widget_message" data-post="tinyGS_Telemetry/%d">`, id)
			fmt.Fprintf(&b, `<div class="tgme_widget_message_text">message %d</div>`, id)
			fmt.Fprintf(&b, `<time datetime="2025-03-01T12:%02d:00+00:00"></time></div>`, id%60)
		}
		b.WriteString(`</body></html>`)
		_, _ = w.Write([]byte(b.String()))
	}
}

func newTestClient(t *testing.T, srv *previewServer) *Client {
	t.Helper()
	ts := httptest.NewServer(srv.handler(t))
	t.Cleanup(ts.Close)
	return New(Config{BaseURL: ts.URL, Timeout: 5 * time.Second}, nil)
}

func entryIDs(entries []harvest.Entry) []int64 {
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestClient_ResolveChannel(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &previewServer{lowID: 1000, highID: 1005, pageSize: 20})
	info, err := client.ResolveChannel(context.Background(), "t.me/tinyGS_Telemetry")
	require.NoError(t, err)
	assert.Equal(t, "tinyGS_Telemetry", info.Username)
	assert.Equal(t, "TinyGS Telemetry", info.Title)
}

func TestClient_ResolveChannel_NoPreview(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Preview unavailable</body></html>`))
	}))
	t.Cleanup(ts.Close)

	client := New(Config{BaseURL: ts.URL}, nil)
	_, err := client.ResolveChannel(context.Background(), "private_channel")
	require.ErrorContains(t, err, "no public preview")
}

func TestClient_ResolveChannel_BadStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(ts.Close)

	client := New(Config{BaseURL: ts.URL}, nil)
	_, err := client.ResolveChannel(context.Background(), "tinyGS_Telemetry")
	require.ErrorContains(t, err, "unexpected status 429")
}

func TestSession_FetchPage_NewestFirst(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &previewServer{lowID: 1000, highID: 1249, pageSize: 20})
	sess, err := client.Open(context.Background(), "tinyGS_Telemetry")
	require.NoError(t, err)
	defer func() { require.NoError(t, sess.Close()) }()

	entries, err := sess.FetchPage(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1249, 1248, 1247, 1246, 1245}, entryIDs(entries))
}

func TestSession_FetchPage_StrictlyOlderThanCursor(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &previewServer{lowID: 1000, highID: 1249, pageSize: 20})
	sess, err := client.Open(context.Background(), "tinyGS_Telemetry")
	require.NoError(t, err)
	defer func() { require.NoError(t, sess.Close()) }()

	before := &harvest.Cursor{ID: 1200}
	entries, err := sess.FetchPage(context.Background(), before, 10)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.Equal(t, int64(1199), entries[0].ID)
	assert.Equal(t, int64(1190), entries[9].ID)
	for _, e := range entries {
		assert.Less(t, e.ID, before.ID)
	}
}

func TestSession_FetchPage_SpansMultiplePreviewPages(t *testing.T) {
	t.Parallel()

	srv := &previewServer{lowID: 1000, highID: 1249, pageSize: 20}
	client := newTestClient(t, srv)
	sess, err := client.Open(context.Background(), "tinyGS_Telemetry")
	require.NoError(t, err)
	defer func() { require.NoError(t, sess.Close()) }()

	entries, err := sess.FetchPage(context.Background(), nil, 50)
	require.NoError(t, err)
	require.Len(t, entries, 50)
	assert.Equal(t, int64(1249), entries[0].ID)
	assert.Equal(t, int64(1200), entries[49].ID)
	assert.GreaterOrEqual(t, srv.requests, 3)
}

func TestSession_FetchPage_ExhaustedArchive(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &previewServer{lowID: 1000, highID: 1004, pageSize: 20})
	sess, err := client.Open(context.Background(), "tinyGS_Telemetry")
	require.NoError(t, err)
	defer func() { require.NoError(t, sess.Close()) }()

	entries, err := sess.FetchPage(context.Background(), &harvest.Cursor{ID: 1003}, 99)
	require.NoError(t, err)
	assert.Equal(t, []int64{1002, 1001, 1000}, entryIDs(entries))

	entries, err = sess.FetchPage(context.Background(), &harvest.Cursor{ID: 1000}, 99)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSession_ReconnectKeepsWorking(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &previewServer{lowID: 1000, highID: 1010, pageSize: 20})
	sess, err := client.Open(context.Background(), "tinyGS_Telemetry")
	require.NoError(t, err)
	defer func() { require.NoError(t, sess.Close()) }()

	require.NoError(t, sess.Reconnect(context.Background()))

	entries, err := sess.FetchPage(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1010, 1009, 1008}, entryIDs(entries))
}
