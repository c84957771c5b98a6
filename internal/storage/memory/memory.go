// Package memory is an in-process store with the same surface as the
// PostgreSQL repository. It backs tests and local dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/ingest"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

// Store keeps every table as an append-only slice
type Store struct {
	mu       sync.RWMutex
	meets    []swim.Meet
	swimmers []swim.Swimmer
	teams    []swim.Team
	events   []swim.Event
	times    []swim.TimeRecord
}

var _ ingest.Repository = (*Store)(nil)

// New creates an empty Store
func New() *Store {
	return &Store{}
}

// AddEvents seeds the event catalogue
func (s *Store) AddEvents(events ...swim.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// ListActiveSwimmerIDs returns active swimmer IDs in ascending order
func (s *Store) ListActiveSwimmerIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, sw := range s.swimmers {
		if sw.Active {
			ids = append(ids, sw.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// KnownMeetSwimmers returns the distinct (meet, swimmer) pairs of stored times
func (s *Store) KnownMeetSwimmers(_ context.Context) ([]swim.MeetSwimmer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[swim.MeetSwimmer]bool)
	var pairs []swim.MeetSwimmer
	for _, t := range s.times {
		ms := swim.MeetSwimmer{MeetID: t.MeetID, SwimmerID: t.SwimmerID}
		if !seen[ms] {
			seen[ms] = true
			pairs = append(pairs, ms)
		}
	}
	return pairs, nil
}

// Snapshot copies the store content
func (s *Store) Snapshot(_ context.Context) (*ingest.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &ingest.Snapshot{
		Meets:    append([]swim.Meet(nil), s.meets...),
		Swimmers: append([]swim.Swimmer(nil), s.swimmers...),
		Teams:    append([]swim.Team(nil), s.teams...),
		Events:   append([]swim.Event(nil), s.events...),
	}
	for _, t := range s.times {
		snap.Times = append(snap.Times, t.Key())
	}
	return snap, nil
}

// ListMeets returns stored meets ordered by start date
func (s *Store) ListMeets(_ context.Context) ([]swim.Meet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meets := append([]swim.Meet(nil), s.meets...)
	sort.SliceStable(meets, func(i, j int) bool { return meets[i].StartDate.Before(meets[j].StartDate) })
	return meets, nil
}

// ListSwimmers returns stored swimmers ordered by ID
func (s *Store) ListSwimmers(_ context.Context) ([]swim.Swimmer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	swimmers := append([]swim.Swimmer(nil), s.swimmers...)
	sort.Slice(swimmers, func(i, j int) bool { return swimmers[i].ID < swimmers[j].ID })
	return swimmers, nil
}

// UpsertSwimmer adds a swimmer or, when the ID exists, copies its active flag
func (s *Store) UpsertSwimmer(_ context.Context, sw swim.Swimmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.swimmers {
		if s.swimmers[i].ID == sw.ID {
			s.swimmers[i].Active = sw.Active
			return nil
		}
	}
	s.swimmers = append(s.swimmers, sw)
	return nil
}

// SetSwimmerActive toggles a stored swimmer
func (s *Store) SetSwimmerActive(_ context.Context, swimmerID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.swimmers {
		if s.swimmers[i].ID == swimmerID {
			s.swimmers[i].Active = active
			return nil
		}
	}
	return errors.Wrapf(ingest.ErrSwimmerNotFound, "swimmer %d", swimmerID)
}

// Times returns a copy of the stored time records
func (s *Store) Times() []swim.TimeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]swim.TimeRecord(nil), s.times...)
}

// ListTimes returns the stored times of one swimmer ordered by meet and event
func (s *Store) ListTimes(_ context.Context, swimmerID int64) ([]swim.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []swim.TimeRecord
	for _, t := range s.times {
		if t.SwimmerID == swimmerID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MeetID != out[j].MeetID {
			return out[i].MeetID < out[j].MeetID
		}
		return out[i].EventID < out[j].EventID
	})
	return out, nil
}

func (s *Store) InsertMeets(_ context.Context, meets []swim.Meet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meets = append(s.meets, meets...)
	return nil
}

func (s *Store) InsertSwimmers(_ context.Context, swimmers []swim.Swimmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swimmers = append(s.swimmers, swimmers...)
	return nil
}

func (s *Store) InsertTeams(_ context.Context, teams []swim.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = append(s.teams, teams...)
	return nil
}

func (s *Store) InsertTimes(_ context.Context, times []swim.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.times = append(s.times, times...)
	return nil
}
