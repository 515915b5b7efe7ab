// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A search can be saved to a file and reloaded later without re-querying
// the provider APIs.
type QueryFile struct {
	Query   string          `yaml:"query"`
	Config  QueryFileConfig `yaml:"config"`
	Papers  []types.Paper   `yaml:"papers"`
	Summary QuerySummary    `yaml:"summary"`
}

// QueryFileConfig stores the search configuration that produced the
// results.
type QueryFileConfig struct {
	Providers  []string `yaml:"providers"`
	MaxResults int      `yaml:"max_results"`
	Dedupe     bool     `yaml:"dedupe"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total           int               `yaml:"total"`
	TotalByProvider map[string]int    `yaml:"total_by_provider,omitempty"`
	Errors          map[string]string `yaml:"errors,omitempty"`
	Timestamp       time.Time         `yaml:"timestamp"`
}

// WriteQueryFile saves the query string and batch results to a YAML
// file.
func WriteQueryFile(path string, q query.Query, providers []string, opts Options, result *types.SearchResult) error {
	qf := QueryFile{
		Query: q.String(),
		Config: QueryFileConfig{
			Providers:  providers,
			MaxResults: opts.maxResults(),
			Dedupe:     !opts.NoDedupe,
		},
		Papers: result.Papers,
		Summary: QuerySummary{
			Total:           len(result.Papers),
			TotalByProvider: result.TotalByProvider,
			Errors:          result.ErrorStrings(),
			Timestamp:       time.Now(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ParseQuery re-parses the stored query string into an AST.
func (qf *QueryFile) ParseQuery() (query.Query, error) {
	return query.Parse(qf.Query)
}
