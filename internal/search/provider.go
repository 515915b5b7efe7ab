// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"

	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/pkg/types"
)

// Provider searches a single external paper API. Each provider owns a
// query translator from the Query AST to its native request shape and a
// response parser producing normalized Papers.
//
// Open establishes the provider's HTTP client (and any local resources);
// Close tears them down. Search pushes papers one at a time, in the
// order the remote API discovers them, through the yield callback; yield
// returning false stops the search early without error. Search is not
// restartable — calling it again performs a fresh remote fetch.
type Provider interface {
	Name() string
	Open(ctx context.Context) error
	Close() error
	Search(ctx context.Context, q query.Query, maxResults int, yield func(types.Paper) bool) error
}

// newHTTPClient builds the per-provider HTTP client from shared settings.
func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	if cfg.Timeout <= 0 {
		cfg = types.DefaultHTTP()
	}
	return &http.Client{Timeout: cfg.Timeout}
}

// userAgent returns the configured User-Agent or the default.
func userAgent(cfg types.HTTPConfig) string {
	if cfg.UserAgent != "" {
		return cfg.UserAgent
	}
	return types.DefaultHTTP().UserAgent
}
