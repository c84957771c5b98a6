package dashboard

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate    SortOrder = "date"
	SortByEvent   SortOrder = "event"
	SortBySwimmer SortOrder = "swimmer"
	SortByTime    SortOrder = "time"
)

// ParseSortOrder validates a sort name
func ParseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortByDate, SortByEvent, SortBySwimmer, SortByTime:
		return order, nil
	}
	return "", errors.Newf("invalid sort: %s (must be date, event, swimmer or time)", s)
}

// SortResults sorts results in place. Ties fall back to date, then time.
func SortResults(results []swim.Result, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(results, func(i, j int) bool {
			return compareByDate(results[i], results[j])
		})
	case SortByEvent:
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].Event != results[j].Event {
				return swim.LessEvent(results[i].Event, results[j].Event)
			}
			return results[i].Seconds < results[j].Seconds
		})
	case SortBySwimmer:
		sort.SliceStable(results, func(i, j int) bool {
			a, b := strings.ToLower(results[i].Swimmer), strings.ToLower(results[j].Swimmer)
			if a != b {
				return a < b
			}
			return compareByDate(results[i], results[j])
		})
	case SortByTime:
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].Seconds != results[j].Seconds {
				return results[i].Seconds < results[j].Seconds
			}
			return compareByDate(results[i], results[j])
		})
	}
}

// compareByDate reports whether i comes before j by date. Dated results come
// before undated ones; among equal dates the faster time wins.
func compareByDate(i, j swim.Result) bool {
	if !i.Date.Equal(j.Date) {
		if i.Date.IsZero() {
			return false
		}
		if j.Date.IsZero() {
			return true
		}
		return i.Date.Before(j.Date)
	}
	return i.Seconds < j.Seconds
}
