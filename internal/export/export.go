// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders batch search results in the supported output
// formats: json, csv, bibtex, ris, csl and the human-readable tree.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/litmesh/pkg/types"
)

// Exporter renders one batch of search results to w.
type Exporter interface {
	Export(w io.Writer, result *types.SearchResult) error
}

// Get returns the exporter for the named format.
func Get(format string) (Exporter, error) {
	switch format {
	case "json":
		return JSON{}, nil
	case "csv":
		return CSV{}, nil
	case "bibtex":
		return BibTeX{}, nil
	case "ris":
		return RIS{}, nil
	case "csl":
		return CSL{}, nil
	case "tree":
		return Tree{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (available: %s)",
			format, strings.Join(Formats(), ", "))
	}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"bibtex", "csl", "csv", "json", "ris", "tree"}
}

// authorNames joins author display names with sep.
func authorNames(authors []types.Author, sep string) string {
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.Name
	}
	return strings.Join(names, sep)
}
