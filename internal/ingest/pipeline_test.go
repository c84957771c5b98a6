package ingest_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/swim-times/internal/ingest"
	"github.com/pfrederiksen/swim-times/internal/logger"
	"github.com/pfrederiksen/swim-times/internal/scraper"
	"github.com/pfrederiksen/swim-times/internal/storage/memory"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

const base = "https://swim.test"

// fakeFetcher serves a fixed site: swimmer 10 has two list pages linking to
// meets 1 and 2; the page for meet 3 always fails.
type fakeFetcher struct {
	meetFetches atomic.Int32
}

func (f *fakeFetcher) MeetsURL(id int64) string {
	return fmt.Sprintf("%s/swimmer/%d/meets/", base, id)
}

func (f *fakeFetcher) DiscoverPages(_ context.Context, root string) ([]string, error) {
	return []string{root + "?page=1", root + "?page=2"}, nil
}

func (f *fakeFetcher) MeetLinks(_ context.Context, page string) ([]string, error) {
	if strings.HasSuffix(page, "?page=1") {
		return []string{base + "/results/1/swimmer/10/", base + "/results/2/swimmer/10/"}, nil
	}
	return []string{base + "/results/2/swimmer/10/", base + "/results/3/swimmer/10/"}, nil
}

func (f *fakeFetcher) FetchMeetPage(_ context.Context, url string) (*scraper.MeetPage, error) {
	f.meetFetches.Add(1)
	ms, err := scraper.ParseMeetURL(url)
	if err != nil {
		return nil, err
	}
	if ms.MeetID == 3 {
		return nil, errors.Wrap(scraper.ErrUnexpectedStatus, "500")
	}

	row := func(event, raw string) swim.ScrapedTime {
		return swim.ScrapedTime{
			MeetID: ms.MeetID, SwimmerID: ms.SwimmerID, SwimmerName: "Ada Lovelace",
			TeamName: "Harbor Aquatics", EventName: event, RawTime: raw,
		}
	}
	return &scraper.MeetPage{
		URL:  url,
		Meet: swim.Meet{ID: ms.MeetID, Name: fmt.Sprintf("Meet %d", ms.MeetID)},
		Times: []swim.ScrapedTime{
			row("100 Yd Freestyle", "1:05.32"),
			row("50 Yd Backstroke", "DQ"),
			row("200 Yd Freestyle Relay", "1:58.40"),
		},
	}, nil
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	store.AddEvents(
		swim.Event{ID: 100, Name: "100 Yd Freestyle"},
		swim.Event{ID: 200, Name: "50 Yd Backstroke"},
	)
	require.NoError(t, store.InsertSwimmers(context.Background(), []swim.Swimmer{swim.NewSwimmer(10, "Ada Lovelace")}))
	return store
}

func TestPipeline_Run(t *testing.T) {
	store := newStore(t)
	fetcher := &fakeFetcher{}

	report, err := ingest.New(store, fetcher, ingest.WithWorkers(3)).Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, report.RunID)
	require.Equal(t, 1, report.Swimmers)
	require.Equal(t, 2, report.ListPages)
	require.Equal(t, 3, report.MeetPages)
	require.Equal(t, 0, report.Pruned)
	require.Equal(t, 2, report.Fetched)
	require.Equal(t, 1, report.Failed)

	require.Len(t, report.Changes.Meets, 2)
	require.Empty(t, report.Changes.Swimmers)
	require.Equal(t, []swim.Team{{Name: "Harbor Aquatics"}}, report.Changes.Teams)
	require.Len(t, report.Changes.Times, 4)
	require.Equal(t, 2, report.Changes.Relays)

	gauges, ok := logger.GetMetricsSnapshot()["gauges"].(map[string]float64)
	require.True(t, ok)
	require.Equal(t, 4.0, gauges["ingest.last_run.times"])
	require.Positive(t, gauges["ingest.last_run.timestamp"])

	stored := store.Times()
	require.Len(t, stored, 4)
	for _, rec := range stored {
		if rec.EventID == 200 {
			require.Nil(t, rec.Seconds)
			require.Equal(t, "Harbor Aquatics; DQ", rec.Notes)
		}
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	store := newStore(t)
	fetcher := &fakeFetcher{}
	pipeline := ingest.New(store, fetcher)

	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(3), fetcher.meetFetches.Load())

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Changes.Empty())
	require.Equal(t, 2, report.Pruned, "pages with stored times are not fetched again")
	require.Equal(t, int32(4), fetcher.meetFetches.Load())
	require.Len(t, store.Times(), 4)
}

func TestPipeline_DryRun(t *testing.T) {
	store := newStore(t)

	report, err := ingest.New(store, &fakeFetcher{}, ingest.WithDryRun(true)).Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.DryRun)
	require.Len(t, report.Changes.Times, 4)
	require.Empty(t, store.Times())

	meets, err := store.ListMeets(context.Background())
	require.NoError(t, err)
	require.Empty(t, meets)
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ingest.New(newStore(t), &fakeFetcher{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
