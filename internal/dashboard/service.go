package dashboard

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/pfrederiksen/swim-times/internal/logger"
	"github.com/pfrederiksen/swim-times/internal/scraper"
	"github.com/pfrederiksen/swim-times/internal/storage"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

// ErrNoResults is returned when no profile page yielded any result
var ErrNoResults = errors.New("no results from any profile page")

// ProfileFetcher fetches one swimmer profile page
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, pageURL string) (*scraper.Profile, error)
}

// Service loads dashboard data from profile pages, going through the cache
type Service struct {
	fetcher   ProfileFetcher
	cache     *storage.Cache
	urls      []string
	standards *Standards
	workers   int

	mu sync.Mutex
}

// NewService creates a Service. cache may be nil to always fetch.
func NewService(fetcher ProfileFetcher, cache *storage.Cache, urls []string, standards *Standards, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		fetcher:   fetcher,
		cache:     cache,
		urls:      urls,
		standards: standards,
		workers:   workers,
	}
}

// Data returns the dashboard data, from the cache when it is fresh
func (s *Service) Data(ctx context.Context) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		snap, ok, err := s.cache.Load()
		if err != nil {
			logger.Warn("Ignoring unreadable dashboard cache", logger.Fields{"path": s.cache.Path()}, err)
		} else if ok && !slices.Equal(snap.Sources, s.urls) {
			logger.Info("Dashboard cache was built from other profile pages", logger.Fields{"path": s.cache.Path()})
		} else if ok {
			logger.IncrCounter("dashboard.cache.hit")
			data := Build(snap.Results, s.standards)
			data.FetchedAt = snap.FetchedAt
			logger.SetGauge("dashboard.results", float64(len(data.Results)))
			return data, nil
		}
	}
	logger.IncrCounter("dashboard.cache.miss")

	results, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	fetchedAt := time.Now().UTC()

	if s.cache != nil {
		if err := s.cache.Save(s.urls, results); err != nil {
			logger.Warn("Failed to save dashboard cache", logger.Fields{"path": s.cache.Path()}, err)
		}
	}

	data := Build(results, s.standards)
	data.FetchedAt = fetchedAt
	logger.SetGauge("dashboard.results", float64(len(data.Results)))
	return data, nil
}

// Refresh drops the cache so the next Data call fetches again
func (s *Service) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		return nil
	}
	logger.Info("Clearing dashboard cache", logger.Fields{"path": s.cache.Path()})
	return s.cache.Clear()
}

// fetchAll fetches every profile page on a bounded pool. Failed pages are
// logged and left out.
func (s *Service) fetchAll(ctx context.Context) ([]swim.Result, error) {
	type outcome struct {
		idx     int
		url     string
		profile *scraper.Profile
		err     error
	}

	p := pool.NewWithResults[outcome]().WithMaxGoroutines(s.workers)
	for i, u := range s.urls {
		i, u := i, u
		p.Go(func() outcome {
			if err := ctx.Err(); err != nil {
				return outcome{idx: i, url: u, err: err}
			}
			profile, err := s.fetcher.FetchProfile(ctx, u)
			return outcome{idx: i, url: u, profile: profile, err: err}
		})
	}
	outcomes := p.Wait()
	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].idx < outcomes[b].idx })

	var results []swim.Result
	for _, out := range outcomes {
		if out.err != nil {
			logger.Warn("Failed to fetch profile", logger.Fields{"url": out.url}, out.err)
			logger.IncrCounter("dashboard.profile.errors")
			continue
		}
		results = append(results, out.profile.Results...)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "fetching profiles")
	}
	if len(results) == 0 && len(s.urls) > 0 {
		return nil, ErrNoResults
	}
	return results, nil
}
