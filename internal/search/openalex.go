// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

const openAlexPageSize = 200

// OpenAlex queries the OpenAlex Works API. No API key is required; a
// mailto address grants polite-pool rate limits.
type OpenAlex struct {
	Logger zerolog.Logger

	cfg    types.HTTPConfig
	mailto string
	client *http.Client
}

// NewOpenAlex builds the provider from shared search settings. The
// mailto address falls back to the OPENALEX_MAILTO environment variable.
func NewOpenAlex(cfg types.SearchConfig) *OpenAlex {
	mailto := cfg.OpenAlexMailto
	if mailto == "" {
		mailto = os.Getenv("OPENALEX_MAILTO")
	}
	return &OpenAlex{cfg: cfg.HTTPConfig, mailto: mailto}
}

// Name returns the provider identifier.
func (o *OpenAlex) Name() string { return "openalex" }

// Open establishes the HTTP client.
func (o *OpenAlex) Open(_ context.Context) error {
	o.client = newHTTPClient(o.cfg)
	return nil
}

// Close releases the HTTP client.
func (o *OpenAlex) Close() error {
	o.client = nil
	return nil
}

// Search translates the query into free-text search terms plus filter
// clauses and pages through the Works endpoint.
func (o *OpenAlex) Search(ctx context.Context, q query.Query, maxResults int, yield func(types.Paper) bool) error {
	if o.client == nil {
		return fmt.Errorf("openalex: provider not opened")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var terms, filters []string
	collectOpenAlexParams(q, &terms, &filters)
	if len(terms) == 0 && len(filters) == 0 {
		return fmt.Errorf("openalex: query has no terms expressible as OpenAlex parameters")
	}
	o.Logger.Debug().Strs("terms", terms).Strs("filters", filters).Msg("openalex query")

	perPage := openAlexPageSize
	if maxResults < perPage {
		perPage = maxResults
	}

	yielded := 0
	for page := 1; ; page++ {
		params := url.Values{
			"per_page": {strconv.Itoa(perPage)},
			"page":     {strconv.Itoa(page)},
		}
		if len(terms) > 0 {
			params.Set("search", strings.Join(terms, " "))
		}
		if len(filters) > 0 {
			params.Set("filter", strings.Join(filters, ","))
		}
		if o.mailto != "" {
			params.Set("mailto", o.mailto)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent(o.cfg))

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("OpenAlex API request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
		}

		var oar openAlexResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&oar)
		resp.Body.Close()
		if decodeErr != nil {
			return fmt.Errorf("parsing OpenAlex response: %w", decodeErr)
		}

		for _, work := range oar.Results {
			paper, ok := parseOpenAlexWork(work)
			if !ok {
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

		if len(oar.Results) < perPage {
			return nil
		}
	}
}

// collectOpenAlexParams walks the AST gathering free-text search terms
// and filter clauses. Title, abstract, keyword and fulltext leaves
// become search terms; author and DOI leaves become filters; year and
// citation ranges become filters. Negation applies only to filters —
// negated search terms have no OpenAlex form and are dropped, a known
// limitation of the free-text family.
func collectOpenAlexParams(q query.Query, terms, filters *[]string) {
	switch n := q.(type) {
	case query.Field:
		switch n.Key {
		case query.KeyTitle, query.KeyAbstract, query.KeyKeyword, query.KeyFulltext:
			*terms = append(*terms, n.Value)
		case query.KeyAuthor:
			*filters = append(*filters, "raw_author_name.search:"+n.Value)
		case query.KeyDOI:
			*filters = append(*filters, "doi:"+n.Value)
		}
	case query.And:
		collectOpenAlexParams(n.Left, terms, filters)
		collectOpenAlexParams(n.Right, terms, filters)
	case query.Or:
		collectOpenAlexParams(n.Left, terms, filters)
		collectOpenAlexParams(n.Right, terms, filters)
	case query.Not:
		var negTerms, negFilters []string
		collectOpenAlexParams(n.Operand, &negTerms, &negFilters)
		for _, f := range negFilters {
			*filters = append(*filters, "!"+f)
		}
	case query.YearRange:
		switch {
		case n.Start.OK && n.End.OK && n.Start.Value == n.End.Value:
			*filters = append(*filters, "publication_year:"+strconv.Itoa(n.Start.Value))
		case n.Start.OK && n.End.OK:
			*filters = append(*filters, fmt.Sprintf("publication_year:%d-%d", n.Start.Value, n.End.Value))
		case n.Start.OK:
			*filters = append(*filters, fmt.Sprintf("publication_year:>%d", n.Start.Value-1))
		case n.End.OK:
			*filters = append(*filters, fmt.Sprintf("publication_year:<%d", n.End.Value+1))
		}
	case query.CitationRange:
		if n.Min.OK {
			*filters = append(*filters, fmt.Sprintf("cited_by_count:>%d", n.Min.Value-1))
		}
		if n.Max.OK {
			*filters = append(*filters, fmt.Sprintf("cited_by_count:<%d", n.Max.Value+1))
		}
	default:
		panic("search: unhandled query node in collectOpenAlexParams")
	}
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          *int                 `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	Concepts              []openAlexConcept    `json:"concepts"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author       openAlexAuthor        `json:"author"`
	Institutions []openAlexInstitution `json:"institutions"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
}

type openAlexConcept struct {
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	LandingPageURL string          `json:"landing_page_url"`
	Source         *openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}

// parseOpenAlexWork converts one work into a Paper. Works without a
// title are skipped.
func parseOpenAlexWork(work openAlexWork) (types.Paper, bool) {
	if work.Title == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		Title:     work.Title,
		Year:      work.PublicationYear,
		Source:    "openalex",
		Abstract:  reconstructAbstract(work.AbstractInvertedIndex),
		DOI:       strings.TrimPrefix(work.DOI, "https://doi.org/"),
		Citations: work.CitedByCount,
	}

	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName == "" {
			continue
		}
		author := types.Author{
			Name:  authorship.Author.DisplayName,
			ORCID: strings.TrimPrefix(authorship.Author.ORCID, "https://orcid.org/"),
		}
		if len(authorship.Institutions) > 0 {
			author.Affiliation = authorship.Institutions[0].DisplayName
		}
		p.Authors = append(p.Authors, author)
	}

	if work.PrimaryLocation.LandingPageURL != "" {
		p.URL = work.PrimaryLocation.LandingPageURL
	} else {
		p.URL = work.ID
	}
	if work.PrimaryLocation.Source != nil {
		p.Journal = work.PrimaryLocation.Source.DisplayName
	}

	for i, concept := range work.Concepts {
		if i >= 5 {
			break
		}
		if concept.DisplayName != "" {
			p.Topics = append(p.Topics, concept.DisplayName)
		}
	}

	if work.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", work.PublicationDate); err == nil {
			p.PublicationDate = t
		}
	}

	if work.ID != "" {
		p.Extras = map[string]any{"openalex_id": work.ID}
	}

	return p, true
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back
// to plain text. The inverted index maps each word to the positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
