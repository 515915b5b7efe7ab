// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litmesh/internal/fulltext"
	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/pkg/types"
)

// apiSearchFunc is a provider's native search path, used by the
// fulltext fallback to run the query with the fulltext leaves removed.
type apiSearchFunc func(ctx context.Context, q query.Query, maxResults int, yield func(types.Paper) bool) error

// searchWithFulltextFallback serves fulltext queries for providers
// without native fulltext search. It extracts the fulltext term,
// resolves it against the local index into a set of paper identifiers,
// runs the remainder of the query against the remote API (over-fetching
// threefold, since most remote hits won't be in the match set), and
// yields only papers whose DOI or provider id is in the set.
//
// A query that is fulltext-only cannot be sent to the remote API at all;
// it logs a warning and yields nothing rather than searching with an
// empty filter.
func searchWithFulltextFallback(
	ctx context.Context,
	idx *fulltext.Index,
	logger zerolog.Logger,
	q query.Query,
	maxResults int,
	yield func(types.Paper) bool,
	searchAPI apiSearchFunc,
) error {
	term, ok := query.ExtractFulltextTerm(q)
	if !ok {
		return nil
	}

	base := query.RemoveFulltext(q)
	if base == nil {
		logger.Warn().Msg(
			"fulltext search needs at least one non-fulltext filter for this provider; " +
				"add TITLE(), AUTHOR() or similar")
		return nil
	}

	if idx == nil {
		logger.Warn().Str("term", term).
			Msg("no local fulltext index configured, yielding nothing")
		return nil
	}

	ids, err := idx.Search(ctx, term, 10000)
	if err != nil {
		return fmt.Errorf("fulltext index lookup: %w", err)
	}
	if len(ids) == 0 {
		logger.Debug().Str("term", term).Msg("no local papers match fulltext term")
		return nil
	}
	logger.Debug().Str("term", term).Int("matches", len(ids)).
		Msg("local fulltext matches")

	match := make(map[string]bool, len(ids))
	for _, id := range ids {
		match[id] = true
	}

	yielded := 0
	return searchAPI(ctx, base, maxResults*3, func(p types.Paper) bool {
		if yielded >= maxResults {
			return false
		}
		id := p.DOI
		if id == "" {
			if v, ok := p.Extras["semantic_scholar_id"].(string); ok {
				id = v
			}
		}
		if id == "" || !match[id] {
			return true
		}
		yielded++
		return yield(p)
	})
}
