package swim

import (
	"strings"
	"time"
)

// ParseMeetDate parses the long-form dates of meet metadata such as
// "September 9, 2023" or "Sept 9, 2023". The month is cut to three letters
// before parsing. Returns the zero time if parsing fails.
func ParseMeetDate(s string) time.Time {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) == 0 {
		return time.Time{}
	}
	if len(parts[0]) > 3 {
		parts[0] = parts[0][:3]
	}

	t, err := time.Parse("Jan 2, 2006", strings.Join(parts, " "))
	if err != nil {
		return time.Time{}
	}
	return t
}

var resultDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006-01-02",
	"2 Jan 2006",
	"02-Jan-2006",
}

// ParseResultDate parses the date cell of a swimmer profile table.
// Returns the zero time if none of the known layouts match.
func ParseResultDate(s string) time.Time {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}
	}

	for _, layout := range resultDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	// Multi-day meets: "Jun 9-11, 2023" dates from the first day
	if month, rest, ok := strings.Cut(s, " "); ok {
		if day, tail, ok := strings.Cut(rest, "-"); ok {
			if _, year, ok := strings.Cut(tail, ", "); ok {
				if t, err := time.Parse("Jan 2, 2006", month+" "+day+", "+year); err == nil {
					return t
				}
			}
		}
	}

	return time.Time{}
}
