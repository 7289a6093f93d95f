package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRangeArgs(t *testing.T) {
	now := time.Date(2025, time.August, 23, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name          string
		args          []string
		expectedStart time.Time
		expectedEnd   time.Time
		expectError   bool
	}{
		{
			name:          "no args - trailing 12 months",
			args:          nil,
			expectedStart: now.AddDate(0, 0, -365),
			expectedEnd:   now,
		},
		{
			name:          "single 4-digit year",
			args:          []string{"2024"},
			expectedStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:          "two ISO dates",
			args:          []string{"2024-03-01", "2024-06-30"},
			expectedStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC),
		},
		{
			name:        "end before start fails before any network call",
			args:        []string{"2024-06-30", "2024-03-01"},
			expectError: true,
		},
		{
			name:        "not a year",
			args:        []string{"202x"},
			expectError: true,
		},
		{
			name:        "garbage dates",
			args:        []string{"yesterday", "today"},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ParseRangeArgs(tc.args, now)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, r.Start.Equal(tc.expectedStart), "start: got %s want %s", r.Start, tc.expectedStart)
			assert.True(t, r.End.Equal(tc.expectedEnd), "end: got %s want %s", r.End, tc.expectedEnd)
			assert.False(t, r.End.Before(r.Start))
		})
	}
}

func TestNewDateRange_RejectsInvertedRange(t *testing.T) {
	_, err := NewDateRange(
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date range")
}

func TestDateRange_Key(t *testing.T) {
	assert.Equal(t, "2024", CalendarYear(2024).Key())

	custom, err := NewDateRange(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, "20240301-20240630", custom.Key())
}

func TestDateRange_IsCalendarYear(t *testing.T) {
	assert.True(t, CalendarYear(2023).IsCalendarYear())

	now := time.Date(2025, 8, 23, 0, 0, 0, 0, time.UTC)
	assert.False(t, LastTwelveMonths(now).IsCalendarYear())
}

func TestDateRange_Contains(t *testing.T) {
	r := CalendarYear(2024)

	assert.True(t, r.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateRange_GitHubFormat(t *testing.T) {
	from, to := CalendarYear(2024).GitHubFormat()
	assert.Equal(t, "2024-01-01T00:00:00Z", from)
	assert.Equal(t, "2024-12-31T23:59:59Z", to)
}

func TestDateRange_Description(t *testing.T) {
	assert.Equal(t, "2024", CalendarYear(2024).Description())

	custom, err := NewDateRange(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 to 2024-06-30", custom.Description())
}
