// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs one query against multiple paper providers
// concurrently and merges the results, either as a completed batch or as
// a live stream.
package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/pkg/types"
)

// OnError selects how a provider failure is handled.
type OnError string

const (
	// OnErrorFail aborts the whole search on the first provider error.
	OnErrorFail OnError = "fail"
	// OnErrorWarn records the error, logs a warning and keeps going.
	OnErrorWarn OnError = "warn"
	// OnErrorIgnore records the error silently and keeps going.
	OnErrorIgnore OnError = "ignore"
)

// Valid reports whether the policy is one of fail, warn or ignore.
func (o OnError) Valid() bool {
	switch o {
	case OnErrorFail, OnErrorWarn, OnErrorIgnore:
		return true
	}
	return false
}

// Options configures one search invocation. The zero value means 100
// results per provider, warn policy, dedupe on, no logging.
type Options struct {
	// MaxResults caps results per provider, not in total. Zero means 100.
	MaxResults int

	// OnError is the provider failure policy. Empty means warn.
	OnError OnError

	// NoDedupe disables batch-mode deduplication. Streaming mode never
	// dedupes regardless of this flag.
	NoDedupe bool

	// Logger receives warnings and debug traces. The zero value discards.
	Logger zerolog.Logger
}

const defaultMaxResults = 100

func (o Options) maxResults() int {
	if o.MaxResults > 0 {
		return o.MaxResults
	}
	return defaultMaxResults
}

func (o Options) onError() OnError {
	if o.OnError == "" {
		return OnErrorWarn
	}
	return o.OnError
}

// providerRun captures one provider's completed search.
type providerRun struct {
	name   string
	papers []types.Paper
	err    error
}

// runProvider opens the provider, collects its papers and closes it.
// Any failure is returned in the run, never panicked or dropped.
func runProvider(ctx context.Context, p Provider, q query.Query, maxResults int) providerRun {
	run := providerRun{name: p.Name()}

	if err := p.Open(ctx); err != nil {
		run.err = fmt.Errorf("opening %s: %w", p.Name(), err)
		return run
	}
	defer p.Close()

	run.err = p.Search(ctx, q, maxResults, func(paper types.Paper) bool {
		run.papers = append(run.papers, paper)
		return true
	})
	return run
}

// Search runs the query against all providers concurrently and returns
// the aggregate once every provider has finished. Papers appear in
// provider-list order, each provider's papers in its own yield order.
//
// Under the fail policy the first failing provider (in provider-list
// order) aborts the batch: its error is returned and no SearchResult is
// produced, even when sibling providers succeeded. Under warn and
// ignore the error is recorded in SearchResult.Errors and the provider
// contributes zero papers.
func Search(ctx context.Context, q query.Query, providers []Provider, opts Options) (*types.SearchResult, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}

	opts.Logger.Info().Int("providers", len(providers)).Msg("starting batch search")

	runs := make([]providerRun, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			runs[i] = runProvider(ctx, p, q, opts.maxResults())
		}(i, p)
	}
	wg.Wait()

	result := &types.SearchResult{
		Errors:          make(map[string]error),
		TotalByProvider: make(map[string]int),
	}

	for _, run := range runs {
		if run.err != nil {
			switch opts.onError() {
			case OnErrorFail:
				return nil, run.err
			case OnErrorWarn:
				opts.Logger.Warn().Str("provider", run.name).Err(run.err).
					Msg("provider failed")
			}
			result.Errors[run.name] = run.err
			continue
		}
		result.Papers = append(result.Papers, run.papers...)
		result.TotalByProvider[run.name] = len(run.papers)
	}

	opts.Logger.Info().Int("papers", len(result.Papers)).
		Int("providers", len(result.TotalByProvider)).Msg("batch search complete")

	if opts.NoDedupe {
		return result, nil
	}
	deduped := result.Dedupe()
	return &deduped, nil
}

// SearchString parses the query text and runs a batch search.
func SearchString(ctx context.Context, text string, providers []Provider, opts Options) (*types.SearchResult, error) {
	q, err := query.Parse(text)
	if err != nil {
		return nil, err
	}
	return Search(ctx, q, providers, opts)
}

// Item is one element of a result stream: either a paper or, under the
// fail policy, a provider error that terminates the stream.
type Item struct {
	Paper    types.Paper
	Provider string
	Err      error
}

// Stream runs the query against all providers concurrently and delivers
// papers as they arrive on the returned channel. Interleaving across
// providers is arrival order, not deterministic. The channel closes once
// every provider has finished.
//
// Under the fail policy a provider error is forwarded as an Item with
// Err set; the caller must stop reading at that point. Sibling providers
// keep running in the background until done — their later papers are
// still sent but should be discarded by the caller. No deduplication is
// applied: dedup requires buffering, which defeats streaming.
func Stream(ctx context.Context, q query.Query, providers []Provider, opts Options) <-chan Item {
	ch := make(chan Item, len(providers))

	opts.Logger.Info().Int("providers", len(providers)).Msg("starting streaming search")

	var wg sync.WaitGroup
	for _, p := range providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			err := streamProvider(ctx, p, q, opts.maxResults(), ch)
			if err == nil {
				return
			}
			switch opts.onError() {
			case OnErrorFail:
				select {
				case ch <- Item{Provider: p.Name(), Err: err}:
				case <-ctx.Done():
				}
			case OnErrorWarn:
				opts.Logger.Warn().Str("provider", p.Name()).Err(err).
					Msg("provider failed")
			}
		}(p)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	return ch
}

func streamProvider(ctx context.Context, p Provider, q query.Query, maxResults int, ch chan<- Item) error {
	if err := p.Open(ctx); err != nil {
		return fmt.Errorf("opening %s: %w", p.Name(), err)
	}
	defer p.Close()

	return p.Search(ctx, q, maxResults, func(paper types.Paper) bool {
		select {
		case ch <- Item{Provider: p.Name(), Paper: paper}:
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// StreamString parses the query text and starts a streaming search.
// A parse failure is returned synchronously; it never enters the stream.
func StreamString(ctx context.Context, text string, providers []Provider, opts Options) (<-chan Item, error) {
	q, err := query.Parse(text)
	if err != nil {
		return nil, err
	}
	return Stream(ctx, q, providers, opts), nil
}

// Take reads at most n items from in and closes the output channel.
// It stops reading from in once n items have passed through; upstream
// producers keep running and their later sends are dropped by the
// channel closing on their side of the orchestrator, not forcibly
// cancelled.
func Take[T any](n int, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		if n <= 0 {
			return
		}
		count := 0
		for item := range in {
			out <- item
			count++
			if count >= n {
				return
			}
		}
	}()
	return out
}
