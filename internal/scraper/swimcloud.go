package scraper

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

const unattachedTeam = "Unattached"

// eventRoundSplit separates the event name from its round inside an Event cell
var eventRoundSplit = regexp.MustCompile(`\n\s+\n`)

// MeetPage is everything extracted from one swimmer's result page for one meet
type MeetPage struct {
	URL   string
	Meet  swim.Meet
	Times []swim.ScrapedTime
}

// meetMetadata mirrors the JSON-LD block embedded in meet pages
type meetMetadata struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Location  struct {
		Name string `json:"name"`
	} `json:"location"`
}

// MeetsURL returns a swimmer's paginated meet list, e.g.
// https://www.swimcloud.com/swimmer/1822492/meets/
func (s *Scraper) MeetsURL(swimmerID int64) string {
	return fmt.Sprintf("%s/swimmer/%d/meets/", s.baseURL, swimmerID)
}

// ParseMeetURL extracts the meet and swimmer IDs from a result page URL of the
// form <base>/results/<meet_id>/swimmer/<swimmer_id>/
func ParseMeetURL(rawURL string) (swim.MeetSwimmer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return swim.MeetSwimmer{}, errors.Wrapf(err, "parse meet url %q", rawURL)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 4 || segments[0] != "results" || segments[2] != "swimmer" {
		return swim.MeetSwimmer{}, errors.Wrapf(ErrMalformedPage, "not a meet result url: %q", rawURL)
	}

	meetID, err := strconv.ParseInt(segments[1], 10, 64)
	if err != nil {
		return swim.MeetSwimmer{}, errors.Wrapf(ErrMalformedPage, "meet id in %q", rawURL)
	}
	swimmerID, err := strconv.ParseInt(segments[3], 10, 64)
	if err != nil {
		return swim.MeetSwimmer{}, errors.Wrapf(ErrMalformedPage, "swimmer id in %q", rawURL)
	}

	return swim.MeetSwimmer{MeetID: meetID, SwimmerID: swimmerID}, nil
}

// DiscoverPages fetches the first page of a swimmer's meet list and returns the
// URLs of every list page, page 1 first.
func (s *Scraper) DiscoverPages(ctx context.Context, rootURL string) ([]string, error) {
	doc, err := s.fetchDocument(ctx, rootURL)
	if err != nil {
		return nil, err
	}
	return pageURLs(doc, rootURL), nil
}

func pageURLs(doc *goquery.Document, rootURL string) []string {
	queries := []string{"?page=1"}
	seen := map[string]bool{"?page=1": true}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		idx := strings.Index(href, "?page=")
		if idx < 0 {
			return
		}
		q := href[idx:]
		if !seen[q] {
			seen[q] = true
			queries = append(queries, q)
		}
	})

	base := strings.SplitN(rootURL, "?", 2)[0]
	urls := make([]string, 0, len(queries))
	for _, q := range queries {
		urls = append(urls, base+q)
	}
	return urls
}

// MeetLinks fetches one meet list page and returns the result page URLs on it
func (s *Scraper) MeetLinks(ctx context.Context, pageURL string) ([]string, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return meetLinks(doc, s.baseURL), nil
}

func meetLinks(doc *goquery.Document, baseURL string) []string {
	var links []string
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "results") || !strings.Contains(href, "swimmer") {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = baseURL + href
		}
		if !seen[href] {
			seen[href] = true
			links = append(links, href)
		}
	})

	return links
}

// FetchMeetPage fetches and parses one swimmer's result page for one meet
func (s *Scraper) FetchMeetPage(ctx context.Context, pageURL string) (*MeetPage, error) {
	var page *MeetPage
	err := s.fetch(ctx, pageURL, func(r io.Reader) error {
		var err error
		page, err = parseMeetPage(r, pageURL)
		return err
	})
	return page, err
}

// parseMeetPage extracts meet metadata and the Times table from a result page
func parseMeetPage(r io.Reader, pageURL string) (*MeetPage, error) {
	ids, err := ParseMeetURL(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing HTML")
	}

	meta, err := parseMeetMetadata(doc)
	if err != nil {
		return nil, err
	}

	swimmerName := cellText(doc.Find("h3.c-title").First().Find("a").First())
	if swimmerName == "" {
		return nil, errors.Wrap(ErrMalformedPage, "swimmer name not found")
	}

	teamName := cellText(doc.Find(`a[href^="/results/"][href*="/team/"]`).First())
	if teamName == "" {
		teamName = unattachedTeam
	}

	page := &MeetPage{
		URL: pageURL,
		Meet: swim.Meet{
			ID:        ids.MeetID,
			Name:      meta.Name,
			Location:  meta.Location.Name,
			StartDate: swim.ParseMeetDate(meta.StartDate),
			EndDate:   swim.ParseMeetDate(meta.EndDate),
		},
	}

	table := timesTable(doc)
	if table == nil {
		return nil, errors.Wrap(ErrMalformedPage, "times table not found")
	}

	var headers []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(cellText(th)))
	})

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return page, nil
	}

	var rowErr error
	rows.Slice(1, goquery.ToEnd).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		var cells []string
		tr.Find("td, th").Each(func(_ int, c *goquery.Selection) {
			text := cellText(c)
			if text == "–" {
				text = ""
			}
			cells = append(cells, text)
		})
		if len(cells) != len(headers) {
			rowErr = errors.Wrapf(ErrMalformedTable, "row %d has %d cells, header has %d", i+1, len(cells), len(headers))
			return false
		}

		row := make(map[string]string, len(headers))
		for j, h := range headers {
			row[h] = cells[j]
		}

		st := swim.ScrapedTime{
			MeetID:      ids.MeetID,
			MeetName:    meta.Name,
			SwimmerID:   ids.SwimmerID,
			SwimmerName: swimmerName,
			TeamName:    teamName,
			Heat:        row["heat"],
			Lane:        row["lane"],
			RawTime:     row["time"],
			Points:      firstNonEmpty(row["fina"], row["pts"], row["points"]),
		}
		st.EventName, st.EventRound = splitEventCell(row["event"])
		if num := row["№"]; len(num) > 0 {
			_, size := utf8.DecodeRuneInString(num)
			st.EventNumber = num[size:]
		}

		page.Times = append(page.Times, st)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return page, nil
}

func parseMeetMetadata(doc *goquery.Document) (meetMetadata, error) {
	var meta meetMetadata
	var found bool
	var decodeErr error

	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, "startDate") {
			return true
		}
		found = true
		decodeErr = sonic.UnmarshalString(strings.TrimSpace(text), &meta)
		return false
	})

	if !found {
		return meta, errors.Wrap(ErrMalformedPage, "meet metadata not found")
	}
	if decodeErr != nil {
		return meta, errors.Wrap(decodeErr, "decoding meet metadata")
	}
	return meta, nil
}

// timesTable returns the first table following the "Times" heading
func timesTable(doc *goquery.Document) *goquery.Selection {
	var table *goquery.Selection
	afterHeading := false

	doc.Find("h3, table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !afterHeading {
			afterHeading = sel.Is("h3") && cellText(sel) == "Times"
			return true
		}
		if sel.Is("table") {
			table = sel
			return false
		}
		return true
	})

	return table
}

// splitEventCell splits "100 Yd Freestyle\n   \nFinals" into name and round
func splitEventCell(cell string) (string, string) {
	parts := eventRoundSplit.Split(cell, 2)
	name := strings.TrimSpace(parts[0])
	if len(parts) == 1 {
		return name, ""
	}
	return name, strings.TrimSpace(parts[1])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
