package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2026-03-14")
	require.True(t, ok)
	require.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), d)

	d, ok = ParseDate("2026-03-14T09:30:00Z")
	require.True(t, ok)
	require.Equal(t, 9, d.Hour())

	_, ok = ParseDate("")
	require.False(t, ok)
	_, ok = ParseDate("next tuesday")
	require.False(t, ok)
}

func TestMonthWindow(t *testing.T) {
	end := time.Date(2026, 2, 27, 18, 0, 0, 0, time.UTC)
	window := MonthWindow(end, 12)
	require.Len(t, window, 12)
	require.Equal(t, "2025-03", window[0])
	require.Equal(t, "2026-02", window[11])

	// year boundaries
	window = MonthWindow(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 3)
	require.Equal(t, []string{"2025-11", "2025-12", "2026-01"}, window)
}
