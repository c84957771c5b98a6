// Package filter narrows swim results for the CLI and the dashboard API.
//
// Criteria combine with AND; list criteria match when any entry matches:
//   - Swimmers (substring of the swimmer name, case-insensitive)
//   - Events (substring of the event name, case-insensitive)
//   - Course (Y, S or L, matched against the abbreviated course letter)
//   - Date range (from/to, inclusive)
//   - Personal bests only
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Swimmers = []string{"ada"}
//	f.Events = []string{"free"}
//	filtered := f.Apply(results)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// Filter represents result filtering criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Swimmers []string `json:"swimmers,omitempty"`
	Events   []string `json:"events,omitempty"`

	// Course is the course letter: Y (yards), S (short course meters) or L (long course meters)
	Course string `json:"course,omitempty"`

	PersonalBestsOnly bool `json:"personal_bests_only,omitempty"`
}

// NewFilter creates a filter that matches every result
func NewFilter() *Filter {
	return &Filter{
		Swimmers: []string{},
		Events:   []string{},
	}
}

// ParseCourse normalizes a course argument. It accepts the letter or a name
// such as "yards", "scm" or "lcm"; "" means any course.
func ParseCourse(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "y", "yd", "yds", "yards", "scy":
		return "Y", nil
	case "s", "scm", "short":
		return "S", nil
	case "l", "m", "lcm", "long", "meters":
		return "L", nil
	}
	return "", errors.Newf("unknown course %q (use Y, S or L)", s)
}

// IsEmpty reports whether the filter has no active criteria
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Swimmers) == 0 &&
		len(f.Events) == 0 &&
		f.Course == "" &&
		!f.PersonalBestsOnly
}

// Matches reports whether a result passes every active criterion.
// Results without a date pass the date range.
func (f *Filter) Matches(r swim.Result) bool {
	if f.IsEmpty() {
		return true
	}

	if !r.Date.IsZero() {
		if f.DateFrom != nil && r.Date.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && r.Date.After(*f.DateTo) {
			return false
		}
	}

	if f.PersonalBestsOnly && !r.PersonalBest {
		return false
	}

	if len(f.Swimmers) > 0 && !containsAny(r.Swimmer, f.Swimmers) {
		return false
	}

	if len(f.Events) > 0 && !containsAny(r.Event, f.Events) && !containsAny(swim.AbbreviateEvent(r.Event), f.Events) {
		return false
	}

	if f.Course != "" {
		name, ok := swim.ParseEventName(swim.AbbreviateEvent(r.Event))
		if !ok || !strings.EqualFold(name.Course, f.Course) {
			return false
		}
	}

	return true
}

func containsAny(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// Apply returns the results that match. An empty filter returns results unchanged.
func (f *Filter) Apply(results []swim.Result) []swim.Result {
	if f.IsEmpty() {
		return results
	}

	var filtered []swim.Result
	for _, r := range results {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
// Format: "From: Jan 2, 2023 | Swimmers: ada | Course: Y"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Swimmers) > 0 {
		parts = append(parts, fmt.Sprintf("Swimmers: %s", strings.Join(f.Swimmers, ", ")))
	}
	if len(f.Events) > 0 {
		parts = append(parts, fmt.Sprintf("Events: %s", strings.Join(f.Events, ", ")))
	}
	if f.Course != "" {
		parts = append(parts, fmt.Sprintf("Course: %s", f.Course))
	}
	if f.PersonalBestsOnly {
		parts = append(parts, "Personal bests only")
	}
	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter
func (f *Filter) Clone() *Filter {
	clone := &Filter{
		Course:            f.Course,
		PersonalBestsOnly: f.PersonalBestsOnly,
		Swimmers:          append([]string{}, f.Swimmers...),
		Events:            append([]string{}, f.Events...),
	}
	if f.DateFrom != nil {
		df := *f.DateFrom
		clone.DateFrom = &df
	}
	if f.DateTo != nil {
		dt := *f.DateTo
		clone.DateTo = &dt
	}
	return clone
}
