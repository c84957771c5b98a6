package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// Series is the progression chart of one event
type Series struct {
	Event string `json:"event"`
	Lines []Line `json:"lines"`
	Ticks []Tick `json:"ticks"`
}

// Line is one swimmer's times in date order
type Line struct {
	Swimmer string  `json:"swimmer"`
	Points  []Point `json:"points"`
}

// Point is a single swim on the chart
type Point struct {
	Date    time.Time `json:"date"`
	Seconds float64   `json:"seconds"`
	Time    string    `json:"time"`
	Meet    string    `json:"meet"`
}

// Tick is a y-axis tick of the log-scale chart
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Progression builds the per-swimmer series for event. Results are expected
// to carry abbreviated event names, as Build produces.
func Progression(results []swim.Result, event string) *Series {
	series := &Series{Event: event}
	lines := make(map[string]*Line)
	var names []string
	lo, hi := math.Inf(1), math.Inf(-1)

	for _, r := range results {
		if r.Event != event {
			continue
		}
		line, ok := lines[r.Swimmer]
		if !ok {
			line = &Line{Swimmer: r.Swimmer}
			lines[r.Swimmer] = line
			names = append(names, r.Swimmer)
		}
		line.Points = append(line.Points, Point{
			Date:    r.Date,
			Seconds: r.Seconds,
			Time:    swim.FormatSeconds(r.Seconds),
			Meet:    r.Meet,
		})
		lo = math.Min(lo, r.Seconds)
		hi = math.Max(hi, r.Seconds)
	}

	sort.Strings(names)
	for _, name := range names {
		line := lines[name]
		sort.SliceStable(line.Points, func(i, j int) bool { return line.Points[i].Date.Before(line.Points[j].Date) })
		series.Lines = append(series.Lines, *line)
	}

	if len(names) > 0 {
		series.Ticks = Ticks(lo, hi)
	}
	return series
}

// Ticks returns y-axis ticks from 0 up to max+1 seconds, stepping by
// int(range/10)+1 seconds, labelled in display form.
func Ticks(lo, hi float64) []Tick {
	step := int((hi-lo)/10) + 1
	limit := int(hi) + 2

	var ticks []Tick
	for v := 0; v < limit; v += step {
		ticks = append(ticks, Tick{Value: float64(v), Label: swim.FormatSeconds(float64(v))})
	}
	return ticks
}
