package dashboard

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// LoadURLFile reads one profile URL per line. Text after "#" is a comment and
// blank lines are skipped.
func LoadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening url file")
	}
	defer f.Close()
	return parseURLs(f)
}

func parseURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading url file")
	}
	return urls, nil
}

// Standards are qualifying times keyed by abbreviated event name
type Standards struct {
	// Columns are the standard names in file order, e.g. JO and FW
	Columns []string
	rows    map[string]map[string]string
}

// Lookup returns the standards for an event, nil if the event has none
func (s *Standards) Lookup(event string) map[string]string {
	if s == nil {
		return nil
	}
	return s.rows[event]
}

// LoadStandards reads a CSV with an Event column and one column per standard.
// A missing file yields no standards.
func LoadStandards(path string) (*Standards, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Standards{}, nil
		}
		return nil, errors.Wrap(err, "opening standards file")
	}
	defer f.Close()
	return parseStandards(f)
}

func parseStandards(r io.Reader) (*Standards, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &Standards{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading standards header")
	}

	eventCol := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if header[i] == "Event" {
			eventCol = i
		}
	}
	if eventCol < 0 {
		return nil, errors.Newf("standards file has no Event column: %v", header)
	}

	s := &Standards{rows: make(map[string]map[string]string)}
	for i, h := range header {
		if i != eventCol {
			s.Columns = append(s.Columns, h)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading standards")
	}
	for _, rec := range records {
		if eventCol >= len(rec) {
			continue
		}
		event := swim.AbbreviateEvent(strings.TrimSpace(rec[eventCol]))
		values := make(map[string]string, len(s.Columns))
		for i, h := range header {
			if i != eventCol && i < len(rec) {
				values[h] = strings.TrimSpace(rec[i])
			}
		}
		s.rows[event] = values
	}
	return s, nil
}
