package ingest

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// ErrSwimmerNotFound is returned when a swimmer ID is not in the store
var ErrSwimmerNotFound = errors.New("swimmer not found")

// Snapshot is the full content of the store that reconciliation compares against
type Snapshot struct {
	Meets    []swim.Meet
	Swimmers []swim.Swimmer
	Teams    []swim.Team
	Events   []swim.Event
	Times    []swim.Key
}

// Repository is the store an ingestion run reads from and appends to
type Repository interface {
	// ListActiveSwimmerIDs returns the swimmers whose meets are scraped
	ListActiveSwimmerIDs(ctx context.Context) ([]int64, error)

	// KnownMeetSwimmers returns every (meet, swimmer) pair that already has times
	KnownMeetSwimmers(ctx context.Context) ([]swim.MeetSwimmer, error)

	// Snapshot reads the meets, swimmers, teams, events and time keys in full
	Snapshot(ctx context.Context) (*Snapshot, error)

	InsertMeets(ctx context.Context, meets []swim.Meet) error
	InsertSwimmers(ctx context.Context, swimmers []swim.Swimmer) error
	InsertTeams(ctx context.Context, teams []swim.Team) error
	InsertTimes(ctx context.Context, times []swim.TimeRecord) error
}
