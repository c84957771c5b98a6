// Package calendar exports stored meets as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

const prodID = "-//swim-times//swim-times//EN"

// GenerateICS renders meets as all-day VEVENTs in one VCALENDAR. Meets without
// a start date are skipped. baseURL links each event to its results page.
func GenerateICS(meets []swim.Meet, baseURL string, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString("X-WR-CALNAME:Swim meets\r\n")

	for _, m := range meets {
		if m.StartDate.IsZero() {
			continue
		}
		writeMeet(&ics, m, baseURL, now)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

// WriteICS writes the feed of GenerateICS to w
func WriteICS(w io.Writer, meets []swim.Meet, baseURL string, now time.Time) error {
	_, err := io.WriteString(w, GenerateICS(meets, baseURL, now))
	return err
}

func writeMeet(ics *strings.Builder, m swim.Meet, baseURL string, now time.Time) {
	end := m.EndDate
	if end.IsZero() || end.Before(m.StartDate) {
		end = m.StartDate
	}

	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:meet-%d@swim-times\r\n", m.ID))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(now)))

	// all-day events; DTEND is exclusive
	ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", formatICSDate(m.StartDate)))
	ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", formatICSDate(end.AddDate(0, 0, 1))))

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(m.Name)))
	if m.Location != "" {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(m.Location)))
	}
	if baseURL != "" {
		url := fmt.Sprintf("%s/results/%d/", strings.TrimRight(baseURL, "/"), m.ID)
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", url))
		ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS("Results: "+url)))
	}
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:TRANSPARENT\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
