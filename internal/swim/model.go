package swim

import (
	"strings"
	"time"
)

// Meet represents a swim competition
type Meet struct {
	ID        int64     `json:"meet_id"`
	Name      string    `json:"meet_name"`
	Location  string    `json:"location"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Swimmer represents a registered swimmer
type Swimmer struct {
	ID        int64  `json:"swimmer_id"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Active    bool   `json:"active"`
}

// NewSwimmer builds a Swimmer, deriving first and last name from the first and
// last whitespace-separated tokens of the full name.
func NewSwimmer(id int64, fullName string) Swimmer {
	fullName = strings.TrimSpace(fullName)
	s := Swimmer{ID: id, FullName: fullName, Active: true}
	parts := strings.Fields(fullName)
	if len(parts) > 0 {
		s.FirstName = parts[0]
		s.LastName = parts[len(parts)-1]
	}
	return s
}

// Team represents a club. Code is empty when the store has no code for it.
type Team struct {
	Name string `json:"team_name"`
	Code string `json:"team_code,omitempty"`
}

// Event represents a catalogued swim event, e.g. "100 Yd Freestyle"
type Event struct {
	ID   int64  `json:"event_id"`
	Name string `json:"event_name"`
}

// Key is the natural key of a stored time
type Key struct {
	MeetID    int64
	SwimmerID int64
	EventID   int64
}

// MeetSwimmer identifies one swimmer's result page for one meet
type MeetSwimmer struct {
	MeetID    int64
	SwimmerID int64
}

// TimeRecord is a single swim as stored in the times table
type TimeRecord struct {
	MeetID    int64    `json:"meet_id"`
	SwimmerID int64    `json:"swimmer_id"`
	EventID   int64    `json:"event_id"`
	Heat      string   `json:"heat,omitempty"`
	Lane      string   `json:"lane,omitempty"`
	Seconds   *float64 `json:"event_time,omitempty"`
	Points    string   `json:"points,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Key returns the natural key of the record
func (r TimeRecord) Key() Key {
	return Key{MeetID: r.MeetID, SwimmerID: r.SwimmerID, EventID: r.EventID}
}

// ScrapedTime is one row of a meet result page before it is matched against the
// event and team catalogues.
type ScrapedTime struct {
	MeetID      int64
	MeetName    string
	SwimmerID   int64
	SwimmerName string
	TeamName    string
	EventNumber string
	EventName   string
	EventRound  string
	Heat        string
	Lane        string
	RawTime     string
	Seconds     *float64
	Points      string
	Notes       string
}

// AddNote appends a note, separating it from any existing note with "; "
func (t *ScrapedTime) AddNote(note string) {
	t.Notes = JoinNotes(t.Notes, note)
}

// JoinNotes concatenates notes with "; ", skipping empty ones
func JoinNotes(notes ...string) string {
	var parts []string
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "; ")
}

// Result is one row of a swimmer profile page, used by the dashboard
type Result struct {
	Swimmer      string            `json:"swimmer"`
	Club         string            `json:"club"`
	Meet         string            `json:"meet"`
	Date         time.Time         `json:"date"`
	Age          int               `json:"age"`
	Event        string            `json:"event"`
	Seconds      float64           `json:"time"`
	Improvement  *float64          `json:"improvement,omitempty"`
	PersonalBest bool              `json:"personal_best"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// FirstName returns the first token of the swimmer's name
func (r Result) FirstName() string {
	if parts := strings.Fields(r.Swimmer); len(parts) > 0 {
		return parts[0]
	}
	return r.Swimmer
}
