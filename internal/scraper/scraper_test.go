package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

func TestParseMeetURL(t *testing.T) {
	tests := []struct {
		url         string
		wantMeet    int64
		wantSwimmer int64
		wantErr     bool
	}{
		{"https://www.swimcloud.com/results/221001/swimmer/1822492/", 221001, 1822492, false},
		{"https://www.swimcloud.com/results/221001/swimmer/1822492", 221001, 1822492, false},
		{"https://www.swimcloud.com/swimmer/1822492/meets/", 0, 0, true},
		{"https://www.swimcloud.com/results/abc/swimmer/1822492/", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ParseMeetURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMeetURL(%q) expected error", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMeetURL(%q) error: %v", tt.url, err)
			}
			if got.MeetID != tt.wantMeet || got.SwimmerID != tt.wantSwimmer {
				t.Errorf("ParseMeetURL(%q) = %+v", tt.url, got)
			}
		})
	}
}

func TestMeetsURL(t *testing.T) {
	s := New(WithBaseURL("https://example.com/"))
	if got := s.MeetsURL(1822492); got != "https://example.com/swimmer/1822492/meets/" {
		t.Errorf("MeetsURL() = %q", got)
	}
}

func TestDiscoverPagesAndMeetLinks(t *testing.T) {
	html := loadFixture(t, "meets_page.html")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "swim-times") {
			t.Errorf("User-Agent = %q, should contain 'swim-times'", ua)
		}
		w.Write([]byte(html))
	}))
	defer server.Close()

	s := New(WithBaseURL(server.URL))
	root := s.MeetsURL(1822492)

	pages, err := s.DiscoverPages(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, []string{root + "?page=1", root + "?page=2", root + "?page=3"}, pages)

	links, err := s.MeetLinks(context.Background(), pages[1])
	require.NoError(t, err)
	require.Equal(t, []string{
		server.URL + "/results/221001/swimmer/1822492/",
		server.URL + "/results/221002/swimmer/1822492/",
	}, links)
}

func TestParseMeetPage(t *testing.T) {
	html := loadFixture(t, "meet_result.html")

	page, err := parseMeetPage(strings.NewReader(html), "https://www.swimcloud.com/results/221001/swimmer/1822492/")
	require.NoError(t, err)

	require.Equal(t, int64(221001), page.Meet.ID)
	require.Equal(t, "Fall Classic 2023", page.Meet.Name)
	require.Equal(t, "Harbor Natatorium", page.Meet.Location)
	require.Equal(t, time.Date(2023, time.September, 9, 0, 0, 0, 0, time.UTC), page.Meet.StartDate)
	require.Equal(t, time.Date(2023, time.September, 10, 0, 0, 0, 0, time.UTC), page.Meet.EndDate)

	require.Len(t, page.Times, 4)

	first := page.Times[0]
	require.Equal(t, "Ada Lovelace", first.SwimmerName)
	require.Equal(t, int64(1822492), first.SwimmerID)
	require.Equal(t, "Harbor Aquatics", first.TeamName)
	require.Equal(t, "100 Yd Freestyle", first.EventName)
	require.Equal(t, "Prelims", first.EventRound)
	require.Equal(t, "3", first.EventNumber)
	require.Equal(t, "2", first.Heat)
	require.Equal(t, "4", first.Lane)
	require.Equal(t, "1:05.32", first.RawTime)
	require.Equal(t, "312", first.Points)

	require.Equal(t, "", page.Times[1].Points, "en dash should become empty")
	require.Equal(t, "Finals", page.Times[1].EventRound)
	require.Equal(t, "200 Yd Individual Medley", page.Times[2].EventName)
	require.Equal(t, "", page.Times[2].EventRound)
	require.Equal(t, "DQ", page.Times[2].RawTime)
}

func TestParseMeetPage_Unattached(t *testing.T) {
	html := strings.Replace(loadFixture(t, "meet_result.html"),
		`<a href="/results/221001/team/4411/">Harbor Aquatics</a>`, "", 1)

	page, err := parseMeetPage(strings.NewReader(html), "https://www.swimcloud.com/results/221001/swimmer/1822492/")
	require.NoError(t, err)
	require.Equal(t, "Unattached", page.Times[0].TeamName)
}

func TestParseMeetPage_Malformed(t *testing.T) {
	fixture := loadFixture(t, "meet_result.html")
	tests := []struct {
		name    string
		html    string
		wantErr error
	}{
		{
			name:    "missing metadata",
			html:    strings.Replace(fixture, "startDate", "beginDate", 1),
			wantErr: ErrMalformedPage,
		},
		{
			name:    "missing times heading",
			html:    strings.Replace(fixture, "<h3>Times</h3>", "<h3>Results</h3>", 1),
			wantErr: ErrMalformedPage,
		},
		{
			name:    "short row",
			html:    strings.Replace(fixture, "<td>3</td><td>6</td>", "<td>3</td>", 1),
			wantErr: ErrMalformedTable,
		},
		{
			name:    "missing swimmer name",
			html:    strings.Replace(fixture, `class="c-title"`, `class="c-heading"`, 1),
			wantErr: ErrMalformedPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMeetPage(strings.NewReader(tt.html), "https://www.swimcloud.com/results/221001/swimmer/1822492/")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("parseMeetPage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseProfile(t *testing.T) {
	html := loadFixture(t, "profile.html")

	profile, err := parseProfile(strings.NewReader(html), "https://times.example.com/ada")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", profile.Swimmer)
	require.Equal(t, "Harbor Aquatics", profile.Club)

	// the DQ row is dropped and the too-short table is skipped
	require.Len(t, profile.Results, 4)

	free := profile.Results[0]
	require.Equal(t, "Fall Classic 2023", free.Meet)
	require.Equal(t, time.Date(2023, time.September, 9, 0, 0, 0, 0, time.UTC), free.Date)
	require.Equal(t, 11, free.Age)
	require.Equal(t, "50 Yd Freestyle", free.Event)
	require.InDelta(t, 29.80, free.Seconds, 1e-9)
	require.True(t, free.PersonalBest)
	require.NotNil(t, free.Improvement)
	require.InDelta(t, -0.45, *free.Improvement, 1e-9)
	require.Equal(t, "3", free.Extra["Place"])

	back := profile.Results[1]
	require.InDelta(t, 75.02, back.Seconds, 1e-9)
	require.False(t, back.PersonalBest)
	require.InDelta(t, 1.10, *back.Improvement, 1e-9)

	summer := profile.Results[2]
	require.Equal(t, 10, summer.Age)
	require.True(t, summer.PersonalBest, "renamed last column still flags PB")
	require.Nil(t, summer.Improvement)

	require.Nil(t, profile.Results[3].Improvement)
}

func TestParseProfile_Errors(t *testing.T) {
	fixture := loadFixture(t, "profile.html")

	_, err := parseProfile(strings.NewReader(strings.Replace(fixture, "Ada Lovelace | Harbor Aquatics | SwimTimes", "Ada Lovelace", 1)), "u")
	require.ErrorIs(t, err, ErrMalformedPage)

	_, err = parseProfile(strings.NewReader(strings.Replace(fixture, "<td>4</td><td>PB</td>", "<td>PB</td>", 1)), "u")
	require.ErrorIs(t, err, ErrMalformedTable)

	_, err = parseProfile(strings.NewReader(strings.Replace(fixture, "Age 10", "Age ten", 1)), "u")
	require.ErrorIs(t, err, ErrMalformedTable)
}

func TestSplitDateAge(t *testing.T) {
	date, age, err := splitDateAge("Jun 10, 2023 Age 11")
	require.NoError(t, err)
	require.Equal(t, "Jun 10, 2023", date)
	require.Equal(t, 11, age)

	date, age, err = splitDateAge(" Jun 10, 2023 ")
	require.NoError(t, err)
	require.Equal(t, "Jun 10, 2023", date)
	require.Zero(t, age)
}

func TestFetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := New(WithBaseURL(server.URL))
	_, err := s.FetchProfile(context.Background(), server.URL+"/missing")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("FetchProfile() error = %v, want ErrUnexpectedStatus", err)
	}
}

func TestFetchMeetPage(t *testing.T) {
	html := loadFixture(t, "meet_result.html")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	defer server.Close()

	s := New(WithBaseURL(server.URL), WithTimeout(5*time.Second), WithUserAgent("swim-times-test"))
	page, err := s.FetchMeetPage(context.Background(), server.URL+"/results/221001/swimmer/1822492/")
	require.NoError(t, err)
	require.Equal(t, int64(221001), page.Meet.ID)
	require.Len(t, page.Times, 4)
}

func TestMap(t *testing.T) {
	urls := []string{"a", "b", "fail", "c", "d"}
	var running, peak atomic.Int32

	outcomes, err := Map(context.Background(), 2, urls, func(_ context.Context, u string) (string, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		if u == "fail" {
			return "", errors.New("boom")
		}
		return strings.ToUpper(u), nil
	})
	require.NoError(t, err)
	require.Len(t, outcomes, len(urls))

	for i, out := range outcomes {
		require.Equal(t, urls[i], out.URL, "outcomes keep input order")
		if out.URL == "fail" {
			require.Error(t, out.Err)
			continue
		}
		require.NoError(t, out.Err)
		require.Equal(t, strings.ToUpper(out.URL), out.Value)
	}
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := Map(ctx, 4, []string{"a", "b"}, func(context.Context, string) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	for _, out := range outcomes {
		require.ErrorIs(t, out.Err, context.Canceled)
	}

	none, err := Map(context.Background(), 4, nil, func(context.Context, string) (int, error) { return 0, nil })
	require.NoError(t, err)
	require.Empty(t, none)
}
