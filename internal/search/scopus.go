// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/pkg/types"
)

// scopusAPIBase is the Scopus search endpoint. Declared as a var so
// tests can substitute an httptest server.
var scopusAPIBase = "https://api.elsevier.com/content/search/scopus"

// Scopus caps COMPLETE-view pages at 25 entries.
const scopusPageSize = 25

// Scopus queries the Elsevier Scopus search API. An API key is
// mandatory.
type Scopus struct {
	Logger zerolog.Logger

	cfg    types.HTTPConfig
	apiKey string
	client *http.Client
}

// NewScopus builds the provider from shared search settings. The API
// key falls back to the SCOPUS_API_KEY environment variable.
func NewScopus(cfg types.SearchConfig) *Scopus {
	key := cfg.ScopusAPIKey
	if key == "" {
		key = os.Getenv("SCOPUS_API_KEY")
	}
	return &Scopus{cfg: cfg.HTTPConfig, apiKey: key}
}

// Name returns the provider identifier.
func (s *Scopus) Name() string { return "scopus" }

// Open establishes the HTTP client.
func (s *Scopus) Open(_ context.Context) error {
	s.client = newHTTPClient(s.cfg)
	return nil
}

// Close releases the HTTP client.
func (s *Scopus) Close() error {
	s.client = nil
	return nil
}

// Search translates the query into Scopus boolean syntax and pages
// through the results. Scopus cannot filter by citation count
// server-side, so citation ranges are stripped from the request and
// applied locally to each returned record.
func (s *Scopus) Search(ctx context.Context, q query.Query, maxResults int, yield func(types.Paper) bool) error {
	if s.client == nil {
		return fmt.Errorf("scopus: provider not opened")
	}
	if s.apiKey == "" {
		return fmt.Errorf("scopus: API key required (set SCOPUS_API_KEY or configure scopus_api_key)")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	citations, hasCitations := query.ExtractCitationRange(q)
	remote := query.RemoveCitationRange(q)
	if remote == nil {
		s.Logger.Debug().Msg("citation-only query has no Scopus form, yielding nothing")
		return nil
	}

	queryStr := translateScopus(remote)
	if queryStr == "" {
		return fmt.Errorf("scopus: query has no terms expressible in the Scopus syntax")
	}
	s.Logger.Debug().Str("query", queryStr).Msg("scopus query")

	yielded := 0
	for start := 0; ; start += scopusPageSize {
		params := url.Values{
			"query": {queryStr},
			"count": {strconv.Itoa(scopusPageSize)},
			"start": {strconv.Itoa(start)},
			// COMPLETE view is required for abstracts (dc:description).
			"view": {"COMPLETE"},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, scopusAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent(s.cfg))
		req.Header.Set("X-ELS-APIKey", s.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("Scopus API request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("Scopus API returned HTTP %d", resp.StatusCode)
		}

		var sr scopusResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&sr)
		resp.Body.Close()
		if decodeErr != nil {
			return fmt.Errorf("parsing Scopus response: %w", decodeErr)
		}

		for _, entry := range sr.SearchResults.Entries {
			paper, ok := parseScopusEntry(entry)
			if !ok {
				continue
			}
			if hasCitations && !withinCitationRange(paper, citations) {
				continue
			}
			if !yield(paper) {
				return nil
			}
			yielded++
			if yielded >= maxResults {
				return nil
			}
		}

		if len(sr.SearchResults.Entries) < scopusPageSize {
			return nil
		}
	}
}

// withinCitationRange checks a paper's citation count against both
// bounds. A paper without a count fails any bounded check.
func withinCitationRange(p types.Paper, r query.CitationRange) bool {
	if p.Citations == nil {
		return false
	}
	if r.Min.OK && *p.Citations < r.Min.Value {
		return false
	}
	if r.Max.OK && *p.Citations > r.Max.Value {
		return false
	}
	return true
}

// translateScopus renders the AST in Scopus boolean syntax: scoped
// function calls joined by parenthesized infix AND/OR with prefix NOT.
func translateScopus(q query.Query) string {
	switch n := q.(type) {
	case query.Field:
		scope := ""
		switch n.Key {
		case query.KeyTitle:
			scope = "TITLE"
		case query.KeyAuthor:
			scope = "AUTH"
		case query.KeyAbstract:
			scope = "ABS"
		case query.KeyKeyword:
			scope = "KEY"
		case query.KeyFulltext:
			scope = "ALL"
		case query.KeyDOI:
			scope = "DOI"
		}
		return scope + "(" + n.Value + ")"
	case query.And:
		return joinScopus(translateScopus(n.Left), translateScopus(n.Right), "AND")
	case query.Or:
		return joinScopus(translateScopus(n.Left), translateScopus(n.Right), "OR")
	case query.Not:
		inner := translateScopus(n.Operand)
		if inner == "" {
			return ""
		}
		return "NOT " + inner
	case query.YearRange:
		switch {
		case n.Start.OK && n.End.OK && n.Start.Value == n.End.Value:
			return fmt.Sprintf("PUBYEAR = %d", n.Start.Value)
		case n.Start.OK && n.End.OK:
			return fmt.Sprintf("(PUBYEAR > %d AND PUBYEAR < %d)", n.Start.Value-1, n.End.Value+1)
		case n.Start.OK:
			return fmt.Sprintf("PUBYEAR > %d", n.Start.Value-1)
		case n.End.OK:
			return fmt.Sprintf("PUBYEAR < %d", n.End.Value+1)
		default:
			return ""
		}
	case query.CitationRange:
		// Stripped before translation; no Scopus form.
		return ""
	default:
		panic("search: unhandled query node in translateScopus")
	}
}

func joinScopus(left, right, op string) string {
	switch {
	case left == "":
		return right
	case right == "":
		return left
	default:
		return "(" + left + " " + op + " " + right + ")"
	}
}

// Scopus API JSON structures.
type scopusResponse struct {
	SearchResults scopusSearchResults `json:"search-results"`
}

type scopusSearchResults struct {
	Entries []scopusEntry `json:"entry"`
}

type scopusEntry struct {
	Title           string            `json:"dc:title"`
	Creator         string            `json:"dc:creator"`
	Description     string            `json:"dc:description"`
	Identifier      string            `json:"dc:identifier"`
	DOI             string            `json:"prism:doi"`
	CoverDate       string            `json:"prism:coverDate"`
	PublicationName string            `json:"prism:publicationName"`
	CitedByCount    string            `json:"citedby-count"`
	Links           []scopusLink      `json:"link"`
	SubjectAreas    []scopusSubjArea  `json:"subject-area"`
}

type scopusLink struct {
	Ref  string `json:"@ref"`
	Href string `json:"@href"`
}

type scopusSubjArea struct {
	Name string `json:"$"`
}

// parseScopusEntry converts one entry into a Paper. Entries without a
// title are skipped. Scopus search responses carry only the first
// author (dc:creator).
func parseScopusEntry(entry scopusEntry) (types.Paper, bool) {
	if entry.Title == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		Title:    entry.Title,
		Source:   "scopus",
		Abstract: entry.Description,
		DOI:      entry.DOI,
		Journal:  entry.PublicationName,
	}

	if entry.Creator != "" {
		p.Authors = append(p.Authors, types.Author{Name: entry.Creator})
	}

	if entry.CoverDate != "" {
		if t, err := time.Parse("2006-01-02", entry.CoverDate); err == nil {
			p.PublicationDate = t
			p.Year = t.Year()
		} else if y, err := strconv.Atoi(strings.SplitN(entry.CoverDate, "-", 2)[0]); err == nil {
			p.Year = y
		}
	}

	if entry.CitedByCount != "" {
		if n, err := strconv.Atoi(entry.CitedByCount); err == nil {
			p.Citations = &n
		}
	}

	for _, link := range entry.Links {
		if link.Ref == "scopus" {
			p.URL = link.Href
			break
		}
	}

	for i, area := range entry.SubjectAreas {
		if i >= 5 {
			break
		}
		if area.Name != "" {
			p.Topics = append(p.Topics, area.Name)
		}
	}

	if entry.Identifier != "" {
		p.Extras = map[string]any{"scopus_id": entry.Identifier}
	}

	return p, true
}
