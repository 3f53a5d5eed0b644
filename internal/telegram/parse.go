package telegram

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
)

// previewPage is one parsed t.me/s/<channel> document. Entries follow DOM
// order, oldest first; callers reverse for the newest-to-oldest contract.
type previewPage struct {
	title      string
	hasChannel bool
	entries    []harvest.Entry
}

func parsePreview(r io.Reader) (previewPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return previewPage{}, fmt.Errorf("parse preview html: %w", err)
	}

	pg := previewPage{
		hasChannel: doc.Find(".tgme_channel_info").Length() > 0,
	}
	pg.title = strings.TrimSpace(doc.Find(".tgme_channel_info_header_title").First().Text())
	if pg.title == "" {
		pg.title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}

	doc.Find("div.tgme_widget_message").Each(func(_ int, sel *goquery.Selection) {
		entry, ok := parseMessage(sel)
		if ok {
			pg.entries = append(pg.entries, entry)
		}
	})
	return pg, nil
}

func parseMessage(sel *goquery.Selection) (harvest.Entry, bool) {
	post, ok := sel.Attr("data-post")
	if !ok {
		return harvest.Entry{}, false
	}
	idx := strings.LastIndex(post, "/")
	if idx < 0 {
		return harvest.Entry{}, false
	}
	id, err := strconv.ParseInt(post[idx+1:], 10, 64)
	if err != nil {
		return harvest.Entry{}, false
	}

	entry := harvest.Entry{ID: id}

	if dt, found := sel.Find("time").First().Attr("datetime"); found {
		if parsed, perr := time.Parse(time.RFC3339, dt); perr == nil {
			entry.Date = parsed
		}
	}

	entry.Text = strings.TrimSpace(sel.Find(".tgme_widget_message_text").First().Text())

	sel.Find("a.tgme_widget_message_inline_button").Each(func(_ int, btn *goquery.Selection) {
		if href, found := btn.Attr("href"); found && href != "" {
			entry.ButtonURLs = append(entry.ButtonURLs, href)
		}
	})
	return entry, true
}
