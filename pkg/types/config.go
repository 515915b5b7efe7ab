// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litmesh/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings shared by the provider adapters.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// ScopusAPIKey authenticates against the Scopus search API.
	// Falls back to the SCOPUS_API_KEY environment variable.
	ScopusAPIKey string `json:"scopus_api_key,omitempty" yaml:"scopus_api_key,omitempty"`

	// SemanticScholarAPIKey raises Semantic Scholar rate limits.
	// Falls back to the SEMANTIC_SCHOLAR_API_KEY environment variable.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexMailto is sent as the mailto parameter for polite-pool
	// access. Falls back to the OPENALEX_MAILTO environment variable.
	OpenAlexMailto string `json:"openalex_mailto,omitempty" yaml:"openalex_mailto,omitempty"`

	// SemanticScholarRate is the request rate (per second) against the
	// Semantic Scholar API (default 1, the unauthenticated limit).
	SemanticScholarRate float64 `json:"semantic_scholar_rate,omitempty" yaml:"semantic_scholar_rate,omitempty"`

	// FulltextIndexPath locates the local FTS index used by providers
	// without native fulltext search. Empty disables the fallback.
	FulltextIndexPath string `json:"fulltext_index_path,omitempty" yaml:"fulltext_index_path,omitempty"`
}

// DownloadConfig holds settings for the PDF download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutputDir is the directory PDFs are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Delay is the pause between consecutive downloads (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`

	// UnpaywallEmail identifies the caller to the Unpaywall API.
	// Falls back to the UNPAYWALL_EMAIL environment variable.
	UnpaywallEmail string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`
}

// Config groups all litmesh configuration.
type Config struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Download DownloadConfig `json:"download" yaml:"download"`
}

// DefaultHTTP returns the HTTP settings used when none are configured.
func DefaultHTTP() HTTPConfig {
	return HTTPConfig{
		Timeout:   30 * time.Second,
		UserAgent: "litmesh/0.1",
	}
}
