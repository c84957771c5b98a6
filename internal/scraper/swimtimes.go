package scraper

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// Profile is one swimmer profile page with every timed swim on it
type Profile struct {
	URL     string
	Swimmer string
	Club    string
	Results []swim.Result
}

// FetchProfile fetches and parses a swimmer profile page
func (s *Scraper) FetchProfile(ctx context.Context, pageURL string) (*Profile, error) {
	var profile *Profile
	err := s.fetch(ctx, pageURL, func(r io.Reader) error {
		var err error
		profile, err = parseProfile(r, pageURL)
		return err
	})
	return profile, err
}

// parseProfile walks the per-meet tables of a profile page.
//
// The page title reads "Swimmer | Club | Site". The first table is a summary
// and is skipped. Every other table has the meet name in row 0, the date and
// "Age N" in row 1, column headers in row 2 and one swim per following row.
func parseProfile(r io.Reader, pageURL string) (*Profile, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing HTML")
	}

	titleParts := strings.Split(doc.Find("title").First().Text(), "|")
	if len(titleParts) != 3 {
		return nil, errors.Wrapf(ErrMalformedPage, "title %q is not \"swimmer | club | site\"", doc.Find("title").First().Text())
	}

	profile := &Profile{
		URL:     pageURL,
		Swimmer: strings.TrimSpace(titleParts[0]),
		Club:    strings.TrimSpace(titleParts[1]),
	}

	tables := doc.Find("table")
	if tables.Length() < 2 {
		return profile, nil
	}

	var tableErr error
	tables.Slice(1, goquery.ToEnd).EachWithBreak(func(i int, table *goquery.Selection) bool {
		results, err := parseMeetTable(table, profile.Swimmer, profile.Club)
		if err != nil {
			tableErr = errors.Wrapf(err, "table %d", i+1)
			return false
		}
		profile.Results = append(profile.Results, results...)
		return true
	})
	if tableErr != nil {
		return nil, tableErr
	}

	return profile, nil
}

func parseMeetTable(table *goquery.Selection, swimmer, club string) ([]swim.Result, error) {
	rows := table.Find("tr")
	if rows.Length() < 3 {
		return nil, nil
	}

	meet := strings.TrimSpace(joinHeaderText(rows.Eq(0)))
	date, age, err := splitDateAge(joinHeaderText(rows.Eq(1)))
	if err != nil {
		return nil, err
	}

	var headers []string
	rows.Eq(2).Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, cellText(th))
	})
	if len(headers) == 0 {
		return nil, errors.Wrap(ErrMalformedTable, "no column headers")
	}
	// the last column always carries the improvement text, whatever its header
	headers[len(headers)-1] = "Improvement"

	var results []swim.Result
	var rowErr error
	rows.Slice(3, goquery.ToEnd).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return true
		}
		if tds.Length() != len(headers) {
			rowErr = errors.Wrapf(ErrMalformedTable, "row %d has %d cells, header has %d", i+3, tds.Length(), len(headers))
			return false
		}

		cells := make(map[string]string, len(headers))
		tds.Each(func(j int, td *goquery.Selection) {
			cells[headers[j]] = td.Text()
		})

		result, ok, err := buildResult(cells, swimmer, club, meet, date, age)
		if err != nil {
			rowErr = errors.Wrapf(err, "row %d", i+3)
			return false
		}
		if ok {
			results = append(results, result)
		}
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return results, nil
}

func buildResult(cells map[string]string, swimmer, club, meet, date string, age int) (swim.Result, bool, error) {
	raw := strings.TrimSpace(cells["Time"])
	if swim.IsSentinel(raw) {
		return swim.Result{}, false, nil
	}

	t, err := swim.ParseTime(raw)
	if err != nil {
		return swim.Result{}, false, err
	}

	improvement := strings.TrimSpace(cells["Improvement"])
	delta, err := swim.ParseDelta(improvement)
	if err != nil {
		return swim.Result{}, false, errors.Wrap(err, "improvement")
	}

	result := swim.Result{
		Swimmer:      swimmer,
		Club:         club,
		Meet:         meet,
		Date:         swim.ParseResultDate(date),
		Age:          age,
		Event:        strings.TrimSpace(cells["Event"]),
		Seconds:      *t.Seconds,
		Improvement:  delta,
		PersonalBest: strings.Contains(improvement, "Personal Best") || strings.Contains(improvement, "PB"),
	}

	for k, v := range cells {
		switch k {
		case "Time", "Improvement", "Event":
			continue
		}
		if result.Extra == nil {
			result.Extra = make(map[string]string)
		}
		result.Extra[k] = strings.TrimSpace(v)
	}

	return result, true, nil
}

// joinHeaderText joins the th cells of a row with spaces
func joinHeaderText(row *goquery.Selection) string {
	var parts []string
	row.Find("th").Each(func(_ int, th *goquery.Selection) {
		parts = append(parts, th.Text())
	})
	return strings.Join(parts, " ")
}

// splitDateAge splits "Jun 10, 2023 Age 11" into the date text and 11.
// A row without "Age" is all date and yields age 0.
func splitDateAge(s string) (string, int, error) {
	date, rest, found := strings.Cut(s, "Age")
	date = strings.TrimSpace(date)
	if !found {
		return date, 0, nil
	}

	age, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return "", 0, errors.Wrapf(ErrMalformedTable, "age %q", strings.TrimSpace(rest))
	}
	return date, age, nil
}
