package ingest

import (
	"context"
	"time"

	"github.com/chrispappas/golang-generics-set/set"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/pfrederiksen/swim-times/internal/logger"
	"github.com/pfrederiksen/swim-times/internal/scraper"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

// Fetcher is the part of the meet-results scraper a run needs
type Fetcher interface {
	MeetsURL(swimmerID int64) string
	DiscoverPages(ctx context.Context, rootURL string) ([]string, error)
	MeetLinks(ctx context.Context, pageURL string) ([]string, error)
	FetchMeetPage(ctx context.Context, pageURL string) (*scraper.MeetPage, error)
}

// Pipeline runs one ingestion pass from the store's active swimmers to new rows
type Pipeline struct {
	repo    Repository
	fetcher Fetcher
	workers int
	dryRun  bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithWorkers bounds the fetch pool of each stage
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithDryRun computes the changes without writing them
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// New creates a Pipeline
func New(repo Repository, fetcher Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		repo:    repo,
		fetcher: fetcher,
		workers: 8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Report summarizes a run
type Report struct {
	RunID     string
	DryRun    bool
	Swimmers  int
	ListPages int
	MeetPages int
	Pruned    int
	Fetched   int
	Failed    int
	Changes   *Changes
	Duration  time.Duration
}

// Run scrapes every active swimmer and appends the rows the store lacks.
// Per-URL failures are logged and counted in the report; the run carries on
// with the pages that succeeded.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), DryRun: p.dryRun}

	ids, err := p.repo.ListActiveSwimmerIDs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing active swimmers")
	}
	report.Swimmers = len(ids)
	logger.Info("Starting ingestion", logger.Fields{"run_id": report.RunID, "swimmers": len(ids), "dry_run": p.dryRun})

	roots := make([]string, 0, len(ids))
	for _, id := range ids {
		roots = append(roots, p.fetcher.MeetsURL(id))
	}

	pages, failed, err := flatten(ctx, p.workers, roots, p.fetcher.DiscoverPages, report.RunID)
	if err != nil {
		return nil, errors.Wrap(err, "discovering meet list pages")
	}
	report.ListPages = len(pages)
	report.Failed += failed

	links, failed, err := flatten(ctx, p.workers, pages, p.fetcher.MeetLinks, report.RunID)
	if err != nil {
		return nil, errors.Wrap(err, "collecting meet links")
	}
	report.Failed += failed
	links = dedupe(links)
	report.MeetPages = len(links)

	known, err := p.repo.KnownMeetSwimmers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing ingested meet pages")
	}
	links, report.Pruned = prune(links, known)

	pageOutcomes, err := scraper.Map(ctx, p.workers, links, p.fetcher.FetchMeetPage)
	if err != nil {
		return nil, errors.Wrap(err, "fetching meet pages")
	}
	var batch Batch
	for _, out := range pageOutcomes {
		if out.Err != nil {
			report.Failed++
			logger.Warn("Failed to process meet page", logger.Fields{"run_id": report.RunID, "url": out.URL}, out.Err)
			continue
		}
		report.Fetched++
		batch.Meets = append(batch.Meets, out.Value.Meet)
		batch.Times = append(batch.Times, out.Value.Times...)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "ingestion cancelled")
	}

	batch.Times = CleanTimes(batch.Times)

	snapshot, err := p.repo.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading store")
	}
	report.Changes = Reconcile(batch, snapshot)

	if !p.dryRun {
		if err := p.apply(ctx, report.Changes); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	logger.RecordTiming("ingest.run", report.Duration)
	logger.AddCounter("ingest.meets.new", int64(len(report.Changes.Meets)))
	logger.AddCounter("ingest.swimmers.new", int64(len(report.Changes.Swimmers)))
	logger.AddCounter("ingest.teams.new", int64(len(report.Changes.Teams)))
	logger.AddCounter("ingest.times.new", int64(len(report.Changes.Times)))
	logger.SetGauge("ingest.last_run.times", float64(len(report.Changes.Times)))
	logger.SetGauge("ingest.last_run.timestamp", float64(time.Now().Unix()))
	logger.Info("Ingestion complete", logger.Fields{
		"run_id":       report.RunID,
		"dry_run":      p.dryRun,
		"meet_pages":   report.MeetPages,
		"pruned":       report.Pruned,
		"fetched":      report.Fetched,
		"failed":       report.Failed,
		"new_meets":    len(report.Changes.Meets),
		"new_swimmers": len(report.Changes.Swimmers),
		"new_teams":    len(report.Changes.Teams),
		"new_times":    len(report.Changes.Times),
		"relays":       report.Changes.Relays,
		"duration_ms":  report.Duration.Milliseconds(),
	})

	return report, nil
}

// apply appends the changes table by table. Meets, swimmers and teams go
// first so the times they are referenced by never dangle.
func (p *Pipeline) apply(ctx context.Context, c *Changes) error {
	if err := p.repo.InsertMeets(ctx, c.Meets); err != nil {
		return errors.Wrap(err, "inserting meets")
	}
	if err := p.repo.InsertSwimmers(ctx, c.Swimmers); err != nil {
		return errors.Wrap(err, "inserting swimmers")
	}
	if err := p.repo.InsertTeams(ctx, c.Teams); err != nil {
		return errors.Wrap(err, "inserting teams")
	}
	if err := p.repo.InsertTimes(ctx, c.Times); err != nil {
		return errors.Wrap(err, "inserting times")
	}
	return nil
}

// flatten runs fn over urls on the pool and concatenates the successful
// results, logging each failure.
func flatten(ctx context.Context, workers int, urls []string, fn func(context.Context, string) ([]string, error), runID string) ([]string, int, error) {
	outcomes, err := scraper.Map(ctx, workers, urls, fn)
	if err != nil {
		return nil, 0, err
	}

	var all []string
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			logger.Warn("Failed to fetch page", logger.Fields{"run_id": runID, "url": out.URL}, out.Err)
			continue
		}
		all = append(all, out.Value...)
	}
	return all, failed, nil
}

func dedupe(urls []string) []string {
	seen := set.FromSlice([]string{})
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen.Has(u) {
			continue
		}
		seen.Add(u)
		out = append(out, u)
	}
	return out
}

// prune drops result pages whose (meet, swimmer) pair already has times, and
// links that are not result pages at all.
func prune(links []string, known []swim.MeetSwimmer) ([]string, int) {
	done := set.FromSlice(known)
	kept := make([]string, 0, len(links))
	pruned := 0

	for _, link := range links {
		ms, err := scraper.ParseMeetURL(link)
		if err != nil {
			logger.Debug("Skipping non-result link", logger.Fields{"url": link})
			pruned++
			continue
		}
		if done.Has(ms) {
			pruned++
			continue
		}
		kept = append(kept, link)
	}
	return kept, pruned
}
