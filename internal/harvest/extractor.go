package harvest

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Matches the first URL-like substring in message text.
var urlPattern = regexp.MustCompile(`https?://\S+`)

// URLStrategy derives a payload URL from an entry, or "" when it cannot.
// Strategies are evaluated in fixed order until one yields a result.
type URLStrategy func(e Entry, username string) string

// The fixed strategy chain: inline button, URL in text, message permalink.
func defaultStrategies() []URLStrategy {
	return []URLStrategy{buttonURL, inlineURL, permalinkURL}
}

func buttonURL(e Entry, _ string) string {
	if len(e.ButtonURLs) == 0 {
		return ""
	}
	return e.ButtonURLs[0]
}

func inlineURL(e Entry, _ string) string {
	return urlPattern.FindString(e.Text)
}

func permalinkURL(e Entry, username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s/%d", username, e.ID)
}

// NormalizeChannelUsername converts "t.me/xxx", "https://t.me/xxx" or "@xxx"
// into the bare "xxx" usable in permalinks. Returns "" when nothing remains.
func NormalizeChannelUsername(channel string) string {
	s := strings.TrimSpace(channel)
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	return strings.Trim(s, "/@ ")
}

// Extractor decides whether an entry qualifies and derives its payload URL.
type Extractor struct {
	term       string
	username   string
	strategies []URLStrategy
}

// NewExtractor builds an extractor for one (channel, search term) identity.
func NewExtractor(searchTerm, channel string) *Extractor {
	return &Extractor{
		term:       searchTerm,
		username:   NormalizeChannelUsername(channel),
		strategies: defaultStrategies(),
	}
}

// Extract returns the record for a qualifying entry. An entry qualifies only
// when its text contains the search term as an exact, case-sensitive
// substring. A qualifying entry with no derivable URL is skipped (ok=false);
// that is not an error.
func (x *Extractor) Extract(e Entry) (Record, bool) {
	if !strings.Contains(e.Text, x.term) {
		return Record{}, false
	}
	for _, derive := range x.strategies {
		if url := derive(e, x.username); url != "" {
			return Record{
				URL:       url,
				Timestamp: e.Date.UTC().Format(time.RFC3339),
				EntryID:   e.ID,
			}, true
		}
	}
	return Record{}, false
}
