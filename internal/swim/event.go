package swim

import (
	"strconv"
	"strings"
)

var abbreviations = strings.NewReplacer(
	" Yd ", " Y ",
	" M ", " L ",
	"Backstroke", "Back",
	"Freestyle", "Free",
	"Butterfly", "Fly",
	"Breaststroke", "Breast",
	"Individual Medley", "IM",
)

// AbbreviateEvent shortens an event name: "100 Yd Backstroke" becomes
// "100 Y Back" and "200 M Individual Medley" becomes "200 L IM".
func AbbreviateEvent(name string) string {
	return abbreviations.Replace(name)
}

// EventName is an abbreviated event name split into its sortable parts
type EventName struct {
	Distance int
	Course   string
	Stroke   string
}

// ParseEventName splits "<distance> <course> <stroke>". The bool is false when
// the name does not start with a numeric distance followed by a course.
func ParseEventName(name string) (EventName, bool) {
	fields := strings.Fields(name)
	if len(fields) < 3 {
		return EventName{}, false
	}
	distance, err := strconv.Atoi(fields[0])
	if err != nil {
		return EventName{}, false
	}
	return EventName{
		Distance: distance,
		Course:   fields[1],
		Stroke:   strings.Join(fields[2:], " "),
	}, true
}

// LessEvent orders events by distance, then course, then stroke. Names that do
// not parse sort after those that do, alphabetically.
func LessEvent(a, b string) bool {
	ea, okA := ParseEventName(a)
	eb, okB := ParseEventName(b)
	switch {
	case okA && !okB:
		return true
	case !okA && okB:
		return false
	case !okA && !okB:
		return a < b
	}

	if ea.Distance != eb.Distance {
		return ea.Distance < eb.Distance
	}
	if ea.Course != eb.Course {
		return ea.Course < eb.Course
	}
	return ea.Stroke < eb.Stroke
}
