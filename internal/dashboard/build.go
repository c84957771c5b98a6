package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// Data is everything the dashboard renders
type Data struct {
	FetchedAt     time.Time     `json:"fetched_at"`
	Results       []swim.Result `json:"results"`
	PersonalBests []swim.Result `json:"personal_bests"`
	Events        []string      `json:"events"`
	Grid          Grid          `json:"grid"`

	standards *Standards
}

// Grid is the personal-best pivot: one row per event, one column per swimmer
// first name, followed by the standard columns.
type Grid struct {
	Swimmers  []string  `json:"swimmers"`
	Standards []string  `json:"standards"`
	Rows      []GridRow `json:"rows"`
}

// GridRow is one event of the Grid
type GridRow struct {
	Event     string            `json:"event"`
	Cells     []Cell            `json:"cells"`
	Standards map[string]string `json:"standards,omitempty"`
}

// Cell is one swimmer's best time in an event. Best marks the fastest time in
// the row.
type Cell struct {
	Swimmer string   `json:"swimmer"`
	Seconds *float64 `json:"seconds,omitempty"`
	Time    string   `json:"time"`
	Best    bool     `json:"best,omitempty"`
}

// Build abbreviates event names, computes personal bests and pivots them.
// Results come back ordered by date, event and time.
func Build(results []swim.Result, standards *Standards) *Data {
	rows := make([]swim.Result, len(results))
	for i, r := range results {
		r.Event = swim.AbbreviateEvent(r.Event)
		rows[i] = r
	}

	bests := PersonalBests(rows)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Event != b.Event {
			return a.Event < b.Event
		}
		return a.Seconds < b.Seconds
	})

	return &Data{
		Results:       rows,
		PersonalBests: bests,
		Events:        Events(rows),
		Grid:          pivot(bests, standards),
		standards:     standards,
	}
}

// Narrow returns a copy of d holding only results, which must come from
// d.Results. Personal bests, events and the grid are recomputed from them.
func (d *Data) Narrow(results []swim.Result) *Data {
	bests := PersonalBests(results)
	return &Data{
		FetchedAt:     d.FetchedAt,
		Results:       results,
		PersonalBests: bests,
		Events:        Events(results),
		Grid:          pivot(bests, d.standards),
		standards:     d.standards,
	}
}

// PersonalBests keeps the fastest result per (swimmer, event), ordered by
// event then time.
func PersonalBests(results []swim.Result) []swim.Result {
	type key struct{ swimmer, event string }
	best := make(map[key]swim.Result)
	var order []key

	for _, r := range results {
		k := key{r.Swimmer, r.Event}
		cur, ok := best[k]
		if !ok {
			order = append(order, k)
		}
		if !ok || r.Seconds < cur.Seconds {
			best[k] = r
		}
	}

	out := make([]swim.Result, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Event != out[j].Event {
			return out[i].Event < out[j].Event
		}
		return out[i].Seconds < out[j].Seconds
	})
	return out
}

// Events returns the distinct events of results ordered by distance, course
// and stroke.
func Events(results []swim.Result) []string {
	seen := make(map[string]bool)
	var events []string
	for _, r := range results {
		if !seen[r.Event] {
			seen[r.Event] = true
			events = append(events, r.Event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return swim.LessEvent(events[i], events[j]) })
	return events
}

// pivot lays personal bests out by event and swimmer first name. Two swimmers
// sharing a first name share a column, which shows the faster of their times.
func pivot(bests []swim.Result, standards *Standards) Grid {
	byEvent := make(map[string]map[string]float64)
	names := make(map[string]bool)

	for _, r := range bests {
		name := r.FirstName()
		names[name] = true
		if byEvent[r.Event] == nil {
			byEvent[r.Event] = make(map[string]float64)
		}
		if cur, ok := byEvent[r.Event][name]; !ok || r.Seconds < cur {
			byEvent[r.Event][name] = r.Seconds
		}
	}

	grid := Grid{}
	for name := range names {
		grid.Swimmers = append(grid.Swimmers, name)
	}
	sort.Strings(grid.Swimmers)
	if standards != nil {
		grid.Standards = standards.Columns
	}

	events := make([]string, 0, len(byEvent))
	for e := range byEvent {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return swim.LessEvent(events[i], events[j]) })

	for _, event := range events {
		times := byEvent[event]
		fastest := math.Inf(1)
		for _, sec := range times {
			fastest = math.Min(fastest, sec)
		}

		row := GridRow{Event: event, Standards: standards.Lookup(event)}
		for _, name := range grid.Swimmers {
			cell := Cell{Swimmer: name}
			if sec, ok := times[name]; ok {
				sec := sec
				cell.Seconds = &sec
				cell.Time = swim.FormatSeconds(sec)
				cell.Best = sec == fastest
			}
			row.Cells = append(row.Cells, cell)
		}
		grid.Rows = append(grid.Rows, row)
	}

	return grid
}
