// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/litmesh/pkg/types"
)

// RIS renders results in the RIS interchange format consumed by
// reference managers (Zotero, EndNote, Mendeley).
type RIS struct{}

func (RIS) Export(w io.Writer, result *types.SearchResult) error {
	var b strings.Builder
	for i, p := range result.Papers {
		if i > 0 {
			b.WriteString("\n")
		}
		writeRISRecord(&b, p)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRISRecord(b *strings.Builder, p types.Paper) {
	writeRISTag(b, "TY", "JOUR")
	writeRISTag(b, "TI", p.Title)
	for _, a := range p.Authors {
		writeRISTag(b, "AU", a.Name)
	}
	if p.Year != 0 {
		writeRISTag(b, "PY", fmt.Sprintf("%d", p.Year))
	}
	writeRISTag(b, "JO", p.Journal)
	writeRISTag(b, "DO", p.DOI)
	writeRISTag(b, "UR", p.URL)
	writeRISTag(b, "AB", p.Abstract)
	for _, topic := range p.Topics {
		writeRISTag(b, "KW", topic)
	}
	writeRISTag(b, "ER", "")
}

func writeRISTag(b *strings.Builder, tag, value string) {
	if value == "" && tag != "ER" {
		return
	}
	fmt.Fprintf(b, "%s  - %s\n", tag, value)
}
