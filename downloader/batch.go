package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"book-scraper/model"
)

// fetcherPool hands each worker its own fetcher. Fetchers are created on
// first use, so a batch of already downloaded books never starts a browser.
type fetcherPool struct {
	newFetcher func() (model.Fetcher, error)
	size       int

	mu   sync.Mutex
	all  []model.Fetcher
	idle chan model.Fetcher
}

func newFetcherPool(size int, newFetcher func() (model.Fetcher, error)) *fetcherPool {
	return &fetcherPool{newFetcher: newFetcher, size: size, idle: make(chan model.Fetcher, size)}
}

func (p *fetcherPool) get(ctx context.Context) (model.Fetcher, error) {
	select {
	case f := <-p.idle:
		return f, nil
	default:
	}

	p.mu.Lock()
	if len(p.all) < p.size {
		f, err := p.newFetcher()
		if err == nil {
			p.all = append(p.all, f)
		}
		p.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to create fetcher: %w", err)
		}
		return f, nil
	}
	p.mu.Unlock()

	select {
	case f := <-p.idle:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *fetcherPool) put(f model.Fetcher) {
	p.idle <- f
}

func (p *fetcherPool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for _, f := range p.all {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.all = nil
	return errors.Join(errs...)
}

// Run processes targets in input order. With Concurrency 1 books run strictly
// one after another; otherwise up to Concurrency books run at once, each with
// its own fetcher. Under FailAbort the first aborted book stops the batch and
// Run returns an *AbortError; remaining targets stay PENDING.
func (d *Downloader) Run(ctx context.Context, list []model.Target) ([]Result, error) {
	results := make([]Result, len(list))
	for i, t := range list {
		results[i] = Result{Target: t, State: Pending}
	}

	pool := newFetcherPool(d.opts.Concurrency, d.newFetcher)
	defer func() {
		if err := pool.close(); err != nil {
			d.log.Warn().Err(err).Msg("failed to close fetcher")
		}
	}()

	var (
		mu       sync.Mutex
		inflight = make(map[string]bool)
	)
	claim := func(address string) bool {
		mu.Lock()
		defer mu.Unlock()
		if inflight[address] {
			return false
		}
		inflight[address] = true
		return true
	}
	release := func(address string) {
		mu.Lock()
		delete(inflight, address)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, target := range list {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if !claim(target.Address) {
				d.log.Warn().Str("book", target.Address).Msg("book is already being downloaded by another worker")
				results[i].State = Skipped
				return nil
			}
			defer release(target.Address)

			if d.index.Contains(target.Address) {
				d.log.Info().Str("book", target.Address).Msg("book already downloaded")
				results[i].State = Skipped
				return nil
			}

			fetcher, err := pool.get(gctx)
			if err != nil {
				results[i].State = Aborted
				results[i].Err = err
				return &AbortError{Target: target, Err: err}
			}
			defer pool.put(fetcher)

			res := d.Process(gctx, fetcher, target)
			results[i] = res
			if res.State != Aborted {
				return nil
			}
			if d.opts.OnFailure == FailSkip && gctx.Err() == nil {
				d.log.Warn().Str("book", target.Address).Err(res.Err).Msg("skipping failed book")
				return nil
			}
			return &AbortError{Target: target, Err: res.Err}
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
