package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const isoDate = "2006-01-02"

var (
	yearOnly  = regexp.MustCompile(`^(\d{4})$`)
	monthYear = regexp.MustCompile(`(?i)^(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)\s+(\d{4})$`)
)

// ParseDateRange parses a date range for past results.
//
// Supported formats:
//   - "2023" - the whole year
//   - "Jun 2023" or "June 2023" - the whole month
//   - "2023-06-01..2023-09-30" - explicit range, either side may be empty
//
// Returns (dateFrom, dateTo, error). Times are in UTC. Start time is at
// 00:00:00, end time is at 23:59:59. An open side is returned as nil.
func ParseDateRange(input string) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, errors.New("date range cannot be empty")
	}

	if m := yearOnly.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
		return &from, &to, nil
	}

	if m := monthYear.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		year, _ := strconv.Atoi(m[2])
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// day 0 of the next month is the last day of this one
		to := time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
		return &from, &to, nil
	}

	if start, end, ok := strings.Cut(input, ".."); ok {
		var from, to *time.Time
		if s := strings.TrimSpace(start); s != "" {
			t, err := time.Parse(isoDate, s)
			if err != nil {
				return nil, nil, errors.Newf("invalid start date %q (use YYYY-MM-DD)", s)
			}
			from = &t
		}
		if e := strings.TrimSpace(end); e != "" {
			t, err := time.Parse(isoDate, e)
			if err != nil {
				return nil, nil, errors.Newf("invalid end date %q (use YYYY-MM-DD)", e)
			}
			t = t.Add(24*time.Hour - time.Second)
			to = &t
		}
		if from == nil && to == nil {
			return nil, nil, errors.New("date range needs a start or an end")
		}
		if from != nil && to != nil && from.After(*to) {
			return nil, nil, errors.New("start date must be before end date")
		}
		return from, to, nil
	}

	return nil, nil, errors.New("invalid date range format. Use '2023', 'Jun 2023' or '2023-06-01..2023-09-30'")
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))

	months := map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "sept": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	return months[name]
}
