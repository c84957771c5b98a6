package scraper

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
)

// Outcome is the result of one task of Map
type Outcome[T any] struct {
	URL   string
	Value T
	Err   error
}

// Map runs fn for every URL on a bounded worker pool and returns one Outcome
// per URL in input order. Each task returns an independent value; nothing is
// shared between workers. Per-URL failures are reported in Outcome.Err. The
// returned error is only set when the pool itself could not run the tasks.
//
// When ctx is cancelled, URLs not yet started are reported with ctx.Err().
func Map[T any](ctx context.Context, workers int, urls []string, fn func(context.Context, string) (T, error)) ([]Outcome[T], error) {
	if len(urls) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(min(workers, len(urls)))
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	type indexed struct {
		idx int
		out Outcome[T]
	}
	results := make(chan indexed, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		i, u := i, u
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()

			out := Outcome[T]{URL: u}
			if err := ctx.Err(); err != nil {
				out.Err = err
			} else {
				out.Value, out.Err = fn(ctx, u)
			}
			results <- indexed{idx: i, out: out}
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, errors.Wrap(err, "submit task to worker pool")
		}
	}

	wg.Wait()
	close(results)

	collected := make([]indexed, 0, len(urls))
	for r := range results {
		collected = append(collected, r)
	}
	sort.Slice(collected, func(a, b int) bool { return collected[a].idx < collected[b].idx })

	outcomes := make([]Outcome[T], len(collected))
	for i, r := range collected {
		outcomes[i] = r.out
	}
	return outcomes, nil
}
