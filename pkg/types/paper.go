// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the normalized records shared across litmesh:
// the cross-provider Paper model, its identity rule, and the aggregate
// SearchResult returned by batch searches.
package types

import (
	"strconv"
	"strings"
	"time"
)

// Author is one paper author as reported by a provider.
type Author struct {
	// Name is the display name, in the provider's order (usually "Given Family").
	Name string `json:"name" yaml:"name"`

	// Affiliation is the first listed institution, when known.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`

	// ORCID is the bare ORCID identifier without the https://orcid.org/ prefix.
	ORCID string `json:"orcid,omitempty" yaml:"orcid,omitempty"`
}

// Paper is the normalized cross-provider record for one publication.
// Adapters fill as many fields as their API exposes; Title, Year and
// Source are always set.
type Paper struct {
	Title   string   `json:"title" yaml:"title"`
	Authors []Author `json:"authors" yaml:"authors"`
	Year    int      `json:"year" yaml:"year"`

	// Source identifies the provider that found this record
	// (e.g. "arxiv", "openalex", "scopus", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	DOI      string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`
	Topics   []string `json:"topics,omitempty" yaml:"topics,omitempty"`

	// Citations is the citation count, or nil when the provider does not
	// report one. Zero is a valid count and distinct from unknown.
	Citations *int `json:"citations_count,omitempty" yaml:"citations_count,omitempty"`

	// PublicationDate is the full publication date when known; the zero
	// time means only Year is available.
	PublicationDate time.Time `json:"publication_date,omitzero" yaml:"publication_date,omitempty"`

	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Extras carries provider-specific fields that have no normalized slot
	// (e.g. the OpenAlex work ID).
	Extras map[string]any `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// Key returns the dedup key for the paper: the DOI when present,
// otherwise the lowercased title joined with the year. Two papers with
// the same Key are the same logical paper.
func (p Paper) Key() string {
	if p.DOI != "" {
		return p.DOI
	}
	return strings.ToLower(p.Title) + ":" + strconv.Itoa(p.Year)
}

// Same reports whether p and other are the same logical paper: equal
// DOIs when both have one, else case-insensitive title plus year.
func (p Paper) Same(other Paper) bool {
	if p.DOI != "" && other.DOI != "" {
		return p.DOI == other.DOI
	}
	return strings.EqualFold(p.Title, other.Title) && p.Year == other.Year
}

// SearchResult aggregates one batch search across providers.
type SearchResult struct {
	// Papers holds all results in provider-list order, each provider's
	// papers in the order that provider yielded them.
	Papers []Paper `json:"papers" yaml:"papers"`

	// Errors maps provider name to the error it failed with. Successful
	// providers have no entry.
	Errors map[string]error `json:"-" yaml:"-"`

	// TotalByProvider maps provider name to the number of papers it
	// contributed. Failed providers have no entry.
	TotalByProvider map[string]int `json:"total_by_provider" yaml:"total_by_provider"`
}

// Dedupe returns a copy with duplicate papers removed, keeping the first
// occurrence of each paper per the Key identity rule. Errors and
// TotalByProvider pass through unchanged.
func (r SearchResult) Dedupe() SearchResult {
	seen := make(map[string]bool, len(r.Papers))
	unique := make([]Paper, 0, len(r.Papers))

	for _, p := range r.Papers {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, p)
	}

	return SearchResult{
		Papers:          unique,
		Errors:          r.Errors,
		TotalByProvider: r.TotalByProvider,
	}
}

// ErrorStrings returns Errors with each error rendered as a string, for
// serialization by exporters and query files.
func (r SearchResult) ErrorStrings() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for name, err := range r.Errors {
		out[name] = err.Error()
	}
	return out
}
