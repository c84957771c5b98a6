package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/ingest"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", errors.Newf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// TimesResult is the output of the times command
type TimesResult struct {
	FetchedAt time.Time     `json:"fetched_at"`
	Filter    string        `json:"filter,omitempty"`
	Count     int           `json:"count"`
	Results   []swim.Result `json:"results"`
}

// WriteTimes writes swim results in the specified format
func WriteTimes(w io.Writer, result *TimesResult, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	if result.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", result.Filter)
	}
	if result.Count == 0 {
		fmt.Fprintln(w, "No times found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tSWIMMER\tTIME\tDATE\tMEET")
	for _, r := range result.Results {
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.Format(time.DateOnly)
		}
		pb := ""
		if r.PersonalBest {
			pb = " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\t%s\t%s\n", r.Event, r.Swimmer, swim.FormatSeconds(r.Seconds), pb, date, r.Meet)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing table")
	}
	fmt.Fprintf(w, "\nTotal: %d times\n", result.Count)
	return nil
}

// reportOutput is the serialized form of an ingest report
type reportOutput struct {
	RunID       string  `json:"run_id"`
	DryRun      bool    `json:"dry_run"`
	Swimmers    int     `json:"swimmers"`
	ListPages   int     `json:"list_pages"`
	MeetPages   int     `json:"meet_pages"`
	Pruned      int     `json:"pruned"`
	Fetched     int     `json:"fetched"`
	Failed      int     `json:"failed"`
	NewMeets    int     `json:"new_meets"`
	NewSwimmers int     `json:"new_swimmers"`
	NewTeams    int     `json:"new_teams"`
	NewTimes    int     `json:"new_times"`
	Relays      int     `json:"relays_dropped"`
	Seconds     float64 `json:"duration_seconds"`
}

func newReportOutput(r *ingest.Report) reportOutput {
	out := reportOutput{
		RunID:     r.RunID,
		DryRun:    r.DryRun,
		Swimmers:  r.Swimmers,
		ListPages: r.ListPages,
		MeetPages: r.MeetPages,
		Pruned:    r.Pruned,
		Fetched:   r.Fetched,
		Failed:    r.Failed,
		Seconds:   r.Duration.Seconds(),
	}
	if c := r.Changes; c != nil {
		out.NewMeets = len(c.Meets)
		out.NewSwimmers = len(c.Swimmers)
		out.NewTeams = len(c.Teams)
		out.NewTimes = len(c.Times)
		out.Relays = c.Relays
	}
	return out
}

// WriteReport writes an ingest run summary
func WriteReport(w io.Writer, report *ingest.Report, format OutputFormat) error {
	out := newReportOutput(report)
	if format == FormatJSON {
		return writeJSON(w, out)
	}

	verb := "Inserted"
	if out.DryRun {
		verb = "Would insert"
	}
	fmt.Fprintf(w, "Run %s\n", out.RunID)
	fmt.Fprintf(w, "Swimmers: %d, list pages: %d, meet pages: %d (%d already stored)\n",
		out.Swimmers, out.ListPages, out.MeetPages, out.Pruned)
	fmt.Fprintf(w, "Fetched: %d, failed: %d\n", out.Fetched, out.Failed)
	fmt.Fprintf(w, "%s: %d meets, %d swimmers, %d teams, %d times\n",
		verb, out.NewMeets, out.NewSwimmers, out.NewTeams, out.NewTimes)
	if out.Relays > 0 {
		fmt.Fprintf(w, "Dropped %d relay rows\n", out.Relays)
	}
	return nil
}

// WriteMeets writes stored meets
func WriteMeets(w io.Writer, meets []swim.Meet, format OutputFormat) error {
	if format == FormatJSON {
		if meets == nil {
			meets = []swim.Meet{}
		}
		return writeJSON(w, meets)
	}
	if len(meets) == 0 {
		fmt.Fprintln(w, "No meets stored.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tEND\tNAME\tLOCATION")
	for _, m := range meets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", m.ID, formatDate(m.StartDate), formatDate(m.EndDate), m.Name, m.Location)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing table")
	}
	fmt.Fprintf(w, "\nTotal: %d meets\n", len(meets))
	return nil
}

// WriteSwimmers writes registered swimmers
func WriteSwimmers(w io.Writer, swimmers []swim.Swimmer, format OutputFormat) error {
	if format == FormatJSON {
		if swimmers == nil {
			swimmers = []swim.Swimmer{}
		}
		return writeJSON(w, swimmers)
	}
	if len(swimmers) == 0 {
		fmt.Fprintln(w, "No swimmers registered.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tACTIVE")
	for _, s := range swimmers {
		active := "no"
		if s.Active {
			active = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.FullName, active)
	}
	return errors.Wrap(tw.Flush(), "writing table")
}

// StoredTime is a stored time with its meet and event resolved to names
type StoredTime struct {
	MeetID  int64     `json:"meet_id"`
	Meet    string    `json:"meet"`
	Date    time.Time `json:"date"`
	EventID int64     `json:"event_id"`
	Event   string    `json:"event"`
	Seconds *float64  `json:"seconds,omitempty"`
	Time    string    `json:"time"`
	Heat    string    `json:"heat,omitempty"`
	Lane    string    `json:"lane,omitempty"`
	Points  string    `json:"points,omitempty"`
	Notes   string    `json:"notes,omitempty"`
}

// joinStoredTimes resolves meet and event IDs against the store snapshot.
// Unknown IDs keep an empty name.
func joinStoredTimes(records []swim.TimeRecord, snap *ingest.Snapshot) []StoredTime {
	meets := make(map[int64]swim.Meet, len(snap.Meets))
	for _, m := range snap.Meets {
		meets[m.ID] = m
	}
	events := make(map[int64]string, len(snap.Events))
	for _, e := range snap.Events {
		events[e.ID] = e.Name
	}

	out := make([]StoredTime, 0, len(records))
	for _, r := range records {
		row := StoredTime{
			MeetID:  r.MeetID,
			Meet:    meets[r.MeetID].Name,
			Date:    meets[r.MeetID].StartDate,
			EventID: r.EventID,
			Event:   events[r.EventID],
			Seconds: r.Seconds,
			Time:    "NT",
			Heat:    r.Heat,
			Lane:    r.Lane,
			Points:  r.Points,
			Notes:   r.Notes,
		}
		if r.Seconds != nil {
			row.Time = swim.FormatSeconds(*r.Seconds)
		}
		out = append(out, row)
	}
	return out
}

// WriteStoredTimes outputs a swimmer's stored times
func WriteStoredTimes(w io.Writer, rows []StoredTime, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No times stored.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMEET\tEVENT\tTIME\tHEAT/LANE\tNOTES")
	for _, r := range rows {
		heatLane := "-"
		if r.Heat != "" || r.Lane != "" {
			heatLane = r.Heat + "/" + r.Lane
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", formatDate(r.Date), r.Meet, r.Event, r.Time, heatLane, r.Notes)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing table")
	}
	fmt.Fprintf(w, "\nTotal: %d times\n", len(rows))
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := sonic.ConfigStd.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(v), "encoding json")
}
