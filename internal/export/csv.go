// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pdiddy/litmesh/pkg/types"
)

// CSV renders results as a flat spreadsheet, one paper per row. Authors
// and topics are semicolon-joined within their cells.
type CSV struct{}

func (CSV) Export(w io.Writer, result *types.SearchResult) error {
	cw := csv.NewWriter(w)
	header := []string{"title", "authors", "year", "source", "doi", "url", "citations", "journal", "topics"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, p := range result.Papers {
		citations := ""
		if p.Citations != nil {
			citations = strconv.Itoa(*p.Citations)
		}
		topics := ""
		for i, topic := range p.Topics {
			if i > 0 {
				topics += "; "
			}
			topics += topic
		}
		row := []string{
			p.Title,
			authorNames(p.Authors, "; "),
			strconv.Itoa(p.Year),
			p.Source,
			p.DOI,
			p.URL,
			citations,
			p.Journal,
			topics,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
