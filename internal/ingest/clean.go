package ingest

import (
	"strings"

	"github.com/pfrederiksen/swim-times/internal/logger"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

// CleanTimes prepares scraped rows for reconciliation.
//
// Rows without a time are dropped. DQ and NS move into the notes and leave the
// time null. Everything else is padded to H:MM:SS.ss and converted to seconds.
// Rows whose time cannot be parsed are logged and dropped.
func CleanTimes(rows []swim.ScrapedTime) []swim.ScrapedTime {
	cleaned := make([]swim.ScrapedTime, 0, len(rows))

	for _, row := range rows {
		raw := strings.TrimSpace(row.RawTime)
		if raw == "" {
			continue
		}

		t, err := swim.ParseTime(raw)
		if err != nil {
			logger.Warn("Dropping row with unparseable time", logger.Fields{
				"meet_id":    row.MeetID,
				"swimmer_id": row.SwimmerID,
				"event":      row.EventName,
				"time":       raw,
			}, err)
			logger.IncrCounter("ingest.rows.invalid_time")
			continue
		}

		row.Seconds = t.Seconds
		if t.Note != "" {
			row.RawTime = ""
			row.AddNote(t.Note)
		} else {
			row.RawTime = swim.PadTime(raw)
		}
		cleaned = append(cleaned, row)
	}

	return cleaned
}
