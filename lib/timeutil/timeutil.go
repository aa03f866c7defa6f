package timeutil

import "time"

// date math on activity timestamps must not depend on the host's
// timezone, so everything here is pinned to UTC month boundaries
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the portal's date strings. The portal is not
// consistent, list pages carry bare dates while detail pages carry full
// timestamps, so several layouts are attempted in order.
func ParseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// MonthKey buckets a timestamp into its UTC calendar month, e.g. "2026-03".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// MonthWindow returns the keys of the n calendar months ending at the
// month containing end, oldest first.
func MonthWindow(end time.Time, n int) []string {
	end = end.UTC()
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		m := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, i-(n-1), 0)
		keys[i] = MonthKey(m)
	}
	return keys
}
