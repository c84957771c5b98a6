package ingest

import (
	"github.com/chrispappas/golang-generics-set/set"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// Batch is everything scraped in one run, after CleanTimes
type Batch struct {
	Meets []swim.Meet
	Times []swim.ScrapedTime
}

// Changes are the rows of a batch that the store does not have yet
type Changes struct {
	Meets    []swim.Meet
	Swimmers []swim.Swimmer
	Teams    []swim.Team
	Times    []swim.TimeRecord

	// Relays counts rows dropped because their event is not catalogued
	Relays int
}

// Empty reports whether there is nothing to insert
func (c *Changes) Empty() bool {
	return len(c.Meets) == 0 && len(c.Swimmers) == 0 && len(c.Teams) == 0 && len(c.Times) == 0
}

// Reconcile keeps the rows of batch whose natural key is absent from known.
//
// Meets are keyed by meet ID, swimmers by swimmer ID, teams by name and times
// by (meet, swimmer, event). Times resolve their event ID by event name; rows
// whose event is not catalogued (relays) are dropped. A time whose team has no
// code gets the team name prepended to its notes. Repeated keys inside the
// batch keep the first occurrence.
func Reconcile(batch Batch, known *Snapshot) *Changes {
	if known == nil {
		known = &Snapshot{}
	}
	changes := &Changes{}

	meetIDs := set.FromSlice(make([]int64, 0, len(known.Meets)))
	for _, m := range known.Meets {
		meetIDs.Add(m.ID)
	}
	for _, m := range batch.Meets {
		if meetIDs.Has(m.ID) {
			continue
		}
		meetIDs.Add(m.ID)
		changes.Meets = append(changes.Meets, m)
	}

	swimmerIDs := set.FromSlice(make([]int64, 0, len(known.Swimmers)))
	for _, s := range known.Swimmers {
		swimmerIDs.Add(s.ID)
	}
	teamCodes := make(map[string]string, len(known.Teams))
	for _, t := range known.Teams {
		teamCodes[t.Name] = t.Code
	}
	for _, row := range batch.Times {
		if !swimmerIDs.Has(row.SwimmerID) {
			swimmerIDs.Add(row.SwimmerID)
			changes.Swimmers = append(changes.Swimmers, swim.NewSwimmer(row.SwimmerID, row.SwimmerName))
		}
		if _, ok := teamCodes[row.TeamName]; !ok && row.TeamName != "" {
			teamCodes[row.TeamName] = ""
			changes.Teams = append(changes.Teams, swim.Team{Name: row.TeamName})
		}
	}

	eventIDs := make(map[string]int64, len(known.Events))
	for _, e := range known.Events {
		eventIDs[e.Name] = e.ID
	}

	timeKeys := set.FromSlice(known.Times)
	for _, row := range batch.Times {
		eventID, ok := eventIDs[row.EventName]
		if !ok {
			changes.Relays++
			continue
		}

		rec := swim.TimeRecord{
			MeetID:    row.MeetID,
			SwimmerID: row.SwimmerID,
			EventID:   eventID,
			Heat:      row.Heat,
			Lane:      row.Lane,
			Seconds:   row.Seconds,
			Points:    row.Points,
			Notes:     row.Notes,
		}
		if teamCodes[row.TeamName] == "" {
			rec.Notes = swim.JoinNotes(row.TeamName, row.Notes)
		}

		key := rec.Key()
		if timeKeys.Has(key) {
			continue
		}
		timeKeys.Add(key)
		changes.Times = append(changes.Times, rec)
	}

	return changes
}
