package harvest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(id int64, text string, buttons ...string) Entry {
	return Entry{
		ID:         id,
		Date:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Text:       text,
		ButtonURLs: buttons,
	}
}

func TestExtractor_ButtonURLWinsOverInline(t *testing.T) {
	t.Parallel()

	x := NewExtractor("Polytech_Universe-5", "tinyGS_Telemetry")
	rec, ok := x.Extract(entryAt(42,
		"Polytech_Universe-5 https://example.com/inline",
		"https://tinygs.com/packet/42",
	))
	require.True(t, ok)
	assert.Equal(t, "https://tinygs.com/packet/42", rec.URL)
	assert.Equal(t, int64(42), rec.EntryID)
	assert.Equal(t, "2025-03-01T12:00:00Z", rec.Timestamp)
}

func TestExtractor_InlineURLWhenNoButton(t *testing.T) {
	t.Parallel()

	x := NewExtractor("Polytech_Universe-5", "tinyGS_Telemetry")
	rec, ok := x.Extract(entryAt(7, "new Polytech_Universe-5 frame at https://tinygs.com/packet/7 today"))
	require.True(t, ok)
	assert.Equal(t, "https://tinygs.com/packet/7", rec.URL)
}

func TestExtractor_PermalinkFallback(t *testing.T) {
	t.Parallel()

	x := NewExtractor("Polytech_Universe-5", "t.me/tinyGS_Telemetry")
	rec, ok := x.Extract(entryAt(9, "Polytech_Universe-5 heard, no link posted"))
	require.True(t, ok)
	assert.Equal(t, "https://t.me/tinyGS_Telemetry/9", rec.URL)
}

func TestExtractor_FilterIsCaseSensitiveSubstring(t *testing.T) {
	t.Parallel()

	x := NewExtractor("Polytech_Universe-5", "tinyGS_Telemetry")

	_, ok := x.Extract(entryAt(1, "polytech_universe-5 lowercase"))
	assert.False(t, ok)

	_, ok = x.Extract(entryAt(2, "some other satellite"))
	assert.False(t, ok)

	_, ok = x.Extract(entryAt(3, "prefixPolytech_Universe-5suffix counts as a match"))
	assert.True(t, ok)
}

func TestExtractor_NoDerivableURLIsSkipped(t *testing.T) {
	t.Parallel()

	// Empty channel username disables the permalink fallback.
	x := NewExtractor("Polytech_Universe-5", "")
	_, ok := x.Extract(entryAt(5, "Polytech_Universe-5 with no link at all"))
	assert.False(t, ok)
}

func TestNormalizeChannelUsername(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"tinyGS_Telemetry":              "tinyGS_Telemetry",
		"@tinyGS_Telemetry":             "tinyGS_Telemetry",
		"t.me/tinyGS_Telemetry":         "tinyGS_Telemetry",
		"https://t.me/tinyGS_Telemetry": "tinyGS_Telemetry",
		"http://t.me/tinyGS_Telemetry/": "tinyGS_Telemetry",
		"  @handle  ":                   "handle",
		"":                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeChannelUsername(in), "input %q", in)
	}
}

func TestSelectResume(t *testing.T) {
	t.Parallel()

	mid := &Cursor{ID: 1150, Timestamp: "2025-03-01T13:30:00Z"}
	end := &Cursor{ID: 1200, Timestamp: "2025-03-01T13:00:00Z"}

	t.Run("unfinished run resumes from middle flag", func(t *testing.T) {
		s := &State{Status: StatusInProgress, MiddleFlag: mid, EndFlag: end}
		cursor, reason := selectResume(s)
		require.Equal(t, ResumeUnfinished, reason)
		require.Equal(t, int64(1150), cursor.ID)
	})

	t.Run("completed run continues from end flag", func(t *testing.T) {
		s := &State{Status: StatusIdle, MiddleFlag: mid, EndFlag: end}
		cursor, reason := selectResume(s)
		require.Equal(t, ContinueArchive, reason)
		require.Equal(t, int64(1200), cursor.ID)
	})

	t.Run("in_progress without middle flag starts over", func(t *testing.T) {
		s := &State{Status: StatusInProgress}
		cursor, reason := selectResume(s)
		require.Equal(t, FirstRun, reason)
		require.Nil(t, cursor)
	})

	t.Run("fresh state starts at the newest entry", func(t *testing.T) {
		cursor, reason := selectResume(NewState(time.Now()))
		require.Equal(t, FirstRun, reason)
		require.Nil(t, cursor)
	})
}
