// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	arxivPageSize = 100
	arxivMaxTotal = 1000
)

// Arxiv queries the arXiv Atom API. arXiv needs no API key.
type Arxiv struct {
	Logger zerolog.Logger

	cfg    types.HTTPConfig
	client *http.Client
}

// NewArxiv builds the provider from shared search settings.
func NewArxiv(cfg types.SearchConfig) *Arxiv {
	return &Arxiv{cfg: cfg.HTTPConfig}
}

// Name returns the provider identifier.
func (a *Arxiv) Name() string { return "arxiv" }

// Open establishes the HTTP client.
func (a *Arxiv) Open(_ context.Context) error {
	a.client = newHTTPClient(a.cfg)
	return nil
}

// Close releases the HTTP client.
func (a *Arxiv) Close() error {
	a.client = nil
	return nil
}

// Search translates the query to arXiv's prefixed boolean syntax and
// pages through the Atom feed until a short page, the safety cap, or
// maxResults.
func (a *Arxiv) Search(ctx context.Context, q query.Query, maxResults int, yield func(types.Paper) bool) error {
	if a.client == nil {
		return fmt.Errorf("arxiv: provider not opened")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	searchQuery := buildArxivQuery(q)
	if searchQuery == "" {
		return fmt.Errorf("arxiv: query has no terms expressible in the arXiv syntax")
	}
	a.Logger.Debug().Str("search_query", searchQuery).Msg("arxiv query")

	yielded := 0
	for start := 0; start < arxivMaxTotal; start += arxivPageSize {
		params := url.Values{
			"search_query": {searchQuery},
			"start":        {strconv.Itoa(start)},
			"max_results":  {strconv.Itoa(arxivPageSize)},
			"sortBy":       {"relevance"},
			"sortOrder":    {"descending"},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent(a.cfg))

		resp, err := a.client.Do(req)
		if err != nil {
			return fmt.Errorf("arXiv API request: %w", err)
		}

		var feed arxivFeed
		decodeErr := xml.NewDecoder(resp.Body).Decode(&feed)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
		}
		if decodeErr != nil {
			return fmt.Errorf("parsing arXiv response: %w", decodeErr)
		}

		for _, entry := range feed.Entries {
			paper, ok := parseArxivEntry(entry)
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

		if len(feed.Entries) < arxivPageSize {
			return nil
		}
	}
	return nil
}

// buildArxivQuery renders the AST in arXiv's search_query syntax:
// prefixed field terms (ti:, abs:, au:, all:) joined by AND/OR/ANDNOT.
// DOI leaves and bare negation have no arXiv equivalent and contribute
// nothing; citation ranges likewise (arXiv has no citation data). A
// query whose every node is such a gap renders to the empty string.
func buildArxivQuery(q query.Query) string {
	switch n := q.(type) {
	case query.Field:
		prefix := ""
		switch n.Key {
		case query.KeyTitle:
			prefix = "ti"
		case query.KeyAbstract:
			prefix = "abs"
		case query.KeyAuthor:
			prefix = "au"
		case query.KeyKeyword, query.KeyFulltext:
			prefix = "all"
		case query.KeyDOI:
			return ""
		}
		value := n.Value
		if strings.ContainsRune(value, ' ') {
			value = `"` + value + `"`
		}
		return prefix + ":" + value
	case query.And:
		// AND NOT on the right-hand side becomes arXiv's ANDNOT.
		if not, isNot := n.Right.(query.Not); isNot {
			left := buildArxivQuery(n.Left)
			inner := buildArxivQuery(not.Operand)
			if left != "" && inner != "" {
				return "(" + left + " ANDNOT " + inner + ")"
			}
			return left
		}
		return joinArxiv(buildArxivQuery(n.Left), buildArxivQuery(n.Right), "AND")
	case query.Or:
		return joinArxiv(buildArxivQuery(n.Left), buildArxivQuery(n.Right), "OR")
	case query.Not:
		// Bare negation is not expressible without a positive side.
		return ""
	case query.YearRange:
		start, end := 1900, 2100
		if n.Start.OK {
			start = n.Start.Value
		}
		if n.End.OK {
			end = n.End.Value
		}
		return fmt.Sprintf("submittedDate:[%d01010000 TO %d12312359]", start, end)
	case query.CitationRange:
		return ""
	default:
		panic("search: unhandled query node in buildArxivQuery")
	}
}

func joinArxiv(left, right, op string) string {
	switch {
	case left == "":
		return right
	case right == "":
		return left
	default:
		return "(" + left + " " + op + " " + right + ")"
	}
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	DOI        string          `xml:"doi"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	Links      []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name        string `xml:"name"`
	Affiliation string `xml:"affiliation"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// parseArxivEntry converts one Atom entry into a Paper. Entries without
// a title are skipped.
func parseArxivEntry(entry arxivEntry) (types.Paper, bool) {
	title := strings.Join(strings.Fields(entry.Title), " ")
	if title == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		Title:    title,
		Source:   "arxiv",
		Abstract: strings.TrimSpace(entry.Summary),
		DOI:      entry.DOI,
		URL:      entry.ID,
	}

	for _, a := range entry.Authors {
		author := types.Author{Name: strings.TrimSpace(a.Name)}
		if a.Affiliation != "" {
			author.Affiliation = strings.TrimSpace(a.Affiliation)
		}
		p.Authors = append(p.Authors, author)
	}

	for _, c := range entry.Categories {
		if c.Term != "" {
			p.Topics = append(p.Topics, c.Term)
		}
	}

	for _, l := range entry.Links {
		if l.Rel == "alternate" && l.Href != "" {
			p.URL = l.Href
			break
		}
	}

	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		p.PublicationDate = t
		p.Year = t.Year()
	}

	if id := extractArxivID(entry.ID); id != "" {
		p.Extras = map[string]any{"arxiv_id": id}
	}

	return p, true
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
