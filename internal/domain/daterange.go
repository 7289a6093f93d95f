package domain

import (
	"fmt"
	"regexp"
	"time"
)

const isoDateLayout = "2006-01-02"

// githubTimeLayout is the timestamp format the GitHub GraphQL API expects
// for DateTime and GitTimestamp arguments.
const githubTimeLayout = "2006-01-02T15:04:05Z"

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// DateRange is an inclusive [Start, End] analysis window.
// Construct it through one of the constructors below; they guarantee
// End >= Start before any network call happens.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LastTwelveMonths returns the trailing 365 days ending at now.
func LastTwelveMonths(now time.Time) DateRange {
	end := now.UTC()
	return DateRange{Start: end.AddDate(0, 0, -365), End: end}
}

// CalendarYear returns the full calendar year range for the given year.
func CalendarYear(year int) DateRange {
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC),
	}
}

// NewDateRange builds a custom range and rejects end < start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("invalid date range: end %s is before start %s",
			end.Format(isoDateLayout), start.Format(isoDateLayout))
	}
	return DateRange{Start: start.UTC(), End: end.UTC()}, nil
}

// ParseRangeArgs interprets the command-level date range arguments:
// no args means the trailing 12 months, a single 4-digit year means that
// calendar year, and two ISO dates (YYYY-MM-DD) mean a custom range.
func ParseRangeArgs(args []string, now time.Time) (DateRange, error) {
	switch len(args) {
	case 0:
		return LastTwelveMonths(now), nil
	case 1:
		if !yearPattern.MatchString(args[0]) {
			return DateRange{}, fmt.Errorf("invalid year %q: expected a 4-digit year", args[0])
		}
		var year int
		fmt.Sscanf(args[0], "%d", &year)
		return CalendarYear(year), nil
	case 2:
		start, err := time.Parse(isoDateLayout, args[0])
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", args[0])
		}
		end, err := time.Parse(isoDateLayout, args[1])
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", args[1])
		}
		// Make the end date inclusive to end-of-day.
		end = end.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		return NewDateRange(start, end)
	default:
		return DateRange{}, fmt.Errorf("expected at most 2 date arguments, got %d", len(args))
	}
}

// GitHubFormat returns the range endpoints formatted for GraphQL
// DateTime/GitTimestamp variables.
func (r DateRange) GitHubFormat() (from, to string) {
	return r.Start.UTC().Format(githubTimeLayout), r.End.UTC().Format(githubTimeLayout)
}

// Key is the range discriminator used as part of cache keys. Calendar
// years collapse to the bare year so repeated yearly analyses share one
// cache entry; everything else keys on the exact endpoints.
func (r DateRange) Key() string {
	if r.IsCalendarYear() {
		return fmt.Sprintf("%d", r.Start.Year())
	}
	return r.Start.UTC().Format("20060102") + "-" + r.End.UTC().Format("20060102")
}

// IsCalendarYear reports whether the range covers exactly one full
// calendar year.
func (r DateRange) IsCalendarYear() bool {
	s, e := r.Start.UTC(), r.End.UTC()
	return s.Year() == e.Year() &&
		s.Month() == time.January && s.Day() == 1 &&
		e.Month() == time.December && e.Day() == 31
}

// Year is the start year of the range.
func (r DateRange) Year() int {
	return r.Start.UTC().Year()
}

// Contains reports whether t falls inside the range, inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Description renders the range for humans.
func (r DateRange) Description() string {
	if r.IsCalendarYear() {
		return fmt.Sprintf("%d", r.Start.Year())
	}
	return r.Start.UTC().Format(isoDateLayout) + " to " + r.End.UTC().Format(isoDateLayout)
}
