// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches paper PDFs by DOI. Downloaders resolve a DOI
// to PDF bytes; Fetch runs a DOI list through a downloader chain and
// writes the results to disk.
package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/litmesh/pkg/types"
)

// ErrNotFound is returned by a downloader when it has no PDF for the
// DOI. Fetch moves on to the next downloader in the chain.
var ErrNotFound = errors.New("no PDF found")

// Downloader resolves a DOI to PDF bytes.
type Downloader interface {
	Name() string
	Download(ctx context.Context, doi string) ([]byte, error)
}

// Result reports one DOI's download outcome.
type Result struct {
	DOI      string
	Filename string
	// Source names the downloader that produced the PDF.
	Source string
	Err    error
}

// OK reports whether the download succeeded.
func (r Result) OK() bool { return r.Err == nil }

var invalidFilenameChars = regexp.MustCompile(`[\\:*?"<>|]`)

var arxivURLPattern = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d+\.\d+)`)

// ArxivDOIFromURL derives the arXiv-minted DOI from an arXiv URL, so
// papers reported without a DOI can still be downloaded.
// "https://arxiv.org/abs/1908.06954v2" becomes "10.48550/arXiv.1908.06954".
func ArxivDOIFromURL(url string) string {
	m := arxivURLPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return "10.48550/arXiv." + m[1]
}

// MakeFilename sanitizes a DOI into a filesystem-safe stem, without the
// .pdf extension. "10.1234/paper.v1" becomes "10.1234_paper.v1".
func MakeFilename(doi string) string {
	name := strings.ReplaceAll(doi, "/", "_")
	return invalidFilenameChars.ReplaceAllString(name, "_")
}

// Fetch downloads PDFs for the DOI list into cfg.OutputDir, trying each
// downloader in order until one succeeds, and pauses cfg.Delay between
// consecutive DOIs. Every DOI produces exactly one Result through
// yield; returning false from yield stops the run.
func Fetch(ctx context.Context, dois []string, downloaders []Downloader, cfg types.DownloadConfig, yield func(Result) bool) error {
	if len(downloaders) == 0 {
		return fmt.Errorf("download: no downloaders configured")
	}
	dir := cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for i, doi := range dois {
		if i > 0 && cfg.Delay > 0 {
			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if !yield(fetchOne(ctx, doi, dir, downloaders)) {
			return nil
		}
	}
	return nil
}

// fetchOne tries each downloader for one DOI and writes the first PDF
// it gets.
func fetchOne(ctx context.Context, doi, dir string, downloaders []Downloader) Result {
	filename := MakeFilename(doi) + ".pdf"

	var lastErr error
	for _, d := range downloaders {
		pdf, err := d.Download(ctx, doi)
		if err != nil {
			lastErr = err
			continue
		}
		path := filepath.Join(dir, filename)
		if err := os.WriteFile(path, pdf, 0o644); err != nil {
			return Result{DOI: doi, Err: fmt.Errorf("writing %s: %w", path, err)}
		}
		return Result{DOI: doi, Filename: filename, Source: d.Name()}
	}
	return Result{DOI: doi, Err: lastErr}
}

// newHTTPClient builds a client from the shared HTTP settings.
func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	if cfg.Timeout <= 0 {
		cfg = types.DefaultHTTP()
	}
	return &http.Client{Timeout: cfg.Timeout}
}
