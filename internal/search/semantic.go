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
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/litmesh/internal/fulltext"
	"github.com/pdiddy/litmesh/internal/httputil"
	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint.
// Declared as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticPageSize = 100
	semanticMaxTotal = 1000
	semanticFields   = "paperId,title,abstract,authors,year,citationCount,venue,publicationDate,fieldsOfStudy,externalIds"
)

// SemanticScholar queries the Semantic Scholar Graph API. The API is
// paginated and aggressively rate-limited (1 request/s without a key),
// so every request passes through a rate limiter and the 429 retry
// path. Semantic Scholar has no native fulltext search; queries with a
// fulltext leaf go through the local-index fallback.
type SemanticScholar struct {
	Logger zerolog.Logger

	cfg       types.SearchConfig
	apiKey    string
	limiter   *rate.Limiter
	client    *http.Client
	index     *fulltext.Index
	indexPath string
}

// NewSemanticScholar builds the provider from shared search settings.
// The API key falls back to the SEMANTIC_SCHOLAR_API_KEY environment
// variable.
func NewSemanticScholar(cfg types.SearchConfig) *SemanticScholar {
	key := cfg.SemanticScholarAPIKey
	if key == "" {
		key = os.Getenv("SEMANTIC_SCHOLAR_API_KEY")
	}
	rps := cfg.SemanticScholarRate
	if rps <= 0 {
		rps = 1 // unauthenticated limit
	}
	return &SemanticScholar{
		cfg:       cfg,
		apiKey:    key,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		indexPath: cfg.FulltextIndexPath,
	}
}

// Name returns the provider identifier.
func (s *SemanticScholar) Name() string { return "semantic_scholar" }

// Open establishes the HTTP client and, when configured, the local
// fulltext index used by the fallback.
func (s *SemanticScholar) Open(_ context.Context) error {
	s.client = newHTTPClient(s.cfg.HTTPConfig)
	if s.indexPath != "" {
		idx, err := fulltext.Open(s.indexPath)
		if err != nil {
			return fmt.Errorf("opening fulltext index: %w", err)
		}
		s.index = idx
	}
	return nil
}

// Close releases the HTTP client and the fulltext index.
func (s *SemanticScholar) Close() error {
	s.client = nil
	if s.index != nil {
		err := s.index.Close()
		s.index = nil
		return err
	}
	return nil
}

// Search routes fulltext queries through the local-index fallback and
// everything else to the API directly.
func (s *SemanticScholar) Search(ctx context.Context, q query.Query, maxResults int, yield func(types.Paper) bool) error {
	if s.client == nil {
		return fmt.Errorf("semantic_scholar: provider not opened")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if query.HasFulltext(q) {
		return searchWithFulltextFallback(ctx, s.index, s.Logger, q, maxResults, yield, s.searchAPI)
	}
	return s.searchAPI(ctx, q, maxResults, yield)
}

// searchAPI executes the paginated Graph API search. Citation bounds
// split into a request parameter (minCitationCount, sent to the API)
// and a local post-filter (the upper bound, which the API does not
// support).
func (s *SemanticScholar) searchAPI(ctx context.Context, q query.Query, maxResults int, yield func(types.Paper) bool) error {
	citations, hasCitations := query.ExtractCitationRange(q)
	remote := query.RemoveCitationRange(q)
	if remote == nil {
		s.Logger.Debug().Msg("citation-only query, yielding nothing")
		return nil
	}

	var terms []string
	yearStart, yearEnd := collectSemanticTerms(remote, &terms)
	queryStr := joinTerms(terms)
	if queryStr == "" {
		s.Logger.Debug().Msg("query has no Semantic Scholar terms, yielding nothing")
		return nil
	}
	s.Logger.Debug().Str("query", queryStr).Msg("semantic scholar query")

	params := url.Values{
		"query":  {queryStr},
		"limit":  {strconv.Itoa(semanticPageSize)},
		"fields": {semanticFields},
	}
	if hasCitations && citations.Min.OK {
		params.Set("minCitationCount", strconv.Itoa(citations.Min.Value))
	}
	if yearParam := semanticYearParam(yearStart, yearEnd); yearParam != "" {
		params.Set("year", yearParam)
	}

	yielded := 0
	for offset := 0; offset < semanticMaxTotal; offset += semanticPageSize {
		params.Set("offset", strconv.Itoa(offset))

		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent(s.cfg.HTTPConfig))
		if s.apiKey != "" {
			req.Header.Set("x-api-key", s.apiKey)
		}

		resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
		if err != nil {
			return fmt.Errorf("Semantic Scholar API request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
		}

		var sr semanticResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&sr)
		resp.Body.Close()
		if decodeErr != nil {
			return fmt.Errorf("parsing Semantic Scholar response: %w", decodeErr)
		}

		for _, paperData := range sr.Data {
			paper, ok := parseSemanticPaper(paperData)
			if !ok {
				continue
			}
			if hasCitations && citations.Max.OK {
				if paper.Citations == nil || *paper.Citations > citations.Max.Value {
					continue
				}
			}
			if !yield(paper) {
				return nil
			}
			yielded++
			if yielded >= maxResults {
				return nil
			}
		}

		if len(sr.Data) < semanticPageSize || offset+semanticPageSize >= sr.Total {
			return nil
		}
	}
	return nil
}

// collectSemanticTerms walks the AST gathering quoted/bare query terms.
// Title values are quoted phrases; other leaves contribute bare terms.
// Or produces a "(left | right)" group only when both sides contributed;
// Not prefixes each negated term with "-". Year bounds travel as a side
// channel because the API takes year as a separate parameter.
func collectSemanticTerms(q query.Query, terms *[]string) (start, end query.Bound) {
	switch n := q.(type) {
	case query.Field:
		if n.Key == query.KeyTitle {
			*terms = append(*terms, `"`+n.Value+`"`)
		} else {
			*terms = append(*terms, n.Value)
		}
	case query.And:
		s1, e1 := collectSemanticTerms(n.Left, terms)
		s2, e2 := collectSemanticTerms(n.Right, terms)
		return firstBound(s1, s2), firstBound(e1, e2)
	case query.Or:
		var left, right []string
		s1, e1 := collectSemanticTerms(n.Left, &left)
		s2, e2 := collectSemanticTerms(n.Right, &right)
		switch {
		case len(left) > 0 && len(right) > 0:
			*terms = append(*terms, "("+joinTerms(left)+" | "+joinTerms(right)+")")
		case len(left) > 0:
			*terms = append(*terms, left...)
		case len(right) > 0:
			*terms = append(*terms, right...)
		}
		return firstBound(s1, s2), firstBound(e1, e2)
	case query.Not:
		var neg []string
		s1, e1 := collectSemanticTerms(n.Operand, &neg)
		for _, term := range neg {
			*terms = append(*terms, "-"+term)
		}
		return s1, e1
	case query.YearRange:
		return n.Start, n.End
	case query.CitationRange:
		// Handled by the caller's extract/remove pass.
	default:
		panic("search: unhandled query node in collectSemanticTerms")
	}
	return query.Bound{}, query.Bound{}
}

func firstBound(a, b query.Bound) query.Bound {
	if a.OK {
		return a
	}
	return b
}

func joinTerms(terms []string) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}

// semanticYearParam renders the year side channel ("2020-2023",
// "2020-", "-2023" or "").
func semanticYearParam(start, end query.Bound) string {
	switch {
	case start.OK && end.OK:
		return fmt.Sprintf("%d-%d", start.Value, end.Value)
	case start.OK:
		return fmt.Sprintf("%d-", start.Value)
	case end.OK:
		return fmt.Sprintf("-%d", end.Value)
	default:
		return ""
	}
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	CitationCount   *int                `json:"citationCount"`
	Venue           string              `json:"venue"`
	PublicationDate string              `json:"publicationDate"`
	FieldsOfStudy   []string            `json:"fieldsOfStudy"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// parseSemanticPaper converts one record into a Paper. Records without
// a title are skipped.
func parseSemanticPaper(data semanticPaper) (types.Paper, bool) {
	if data.Title == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		Title:     data.Title,
		Year:      data.Year,
		Source:    "semantic_scholar",
		Abstract:  data.Abstract,
		DOI:       data.ExternalIDs.DOI,
		Journal:   data.Venue,
		Citations: data.CitationCount,
	}

	for _, a := range data.Authors {
		if a.Name != "" {
			p.Authors = append(p.Authors, types.Author{Name: a.Name})
		}
	}

	for i, field := range data.FieldsOfStudy {
		if i >= 5 {
			break
		}
		if field != "" {
			p.Topics = append(p.Topics, field)
		}
	}

	if data.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", data.PublicationDate); err == nil {
			p.PublicationDate = t
		}
	}

	if data.PaperID != "" {
		p.URL = "https://www.semanticscholar.org/paper/" + data.PaperID
		p.Extras = map[string]any{"semantic_scholar_id": data.PaperID}
	}

	return p, true
}
