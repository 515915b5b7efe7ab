// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/litmesh/pkg/types"
)

// BibTeX renders results as @article entries. The cite key is the first
// author's family name plus the year; colliding keys get a numeric
// suffix.
type BibTeX struct{}

func (BibTeX) Export(w io.Writer, result *types.SearchResult) error {
	used := make(map[string]int)
	for i, p := range result.Papers {
		key := citeKey(p)
		if n := used[key]; n > 0 {
			used[key] = n + 1
			key = fmt.Sprintf("%s-%d", key, n+1)
		} else {
			used[key] = 1
		}

		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := writeBibTeXEntry(w, key, p); err != nil {
			return err
		}
	}
	return nil
}

func writeBibTeXEntry(w io.Writer, key string, p types.Paper) error {
	var b strings.Builder
	fmt.Fprintf(&b, "@article{%s,\n", key)
	writeBibTeXField(&b, "title", p.Title)
	writeBibTeXField(&b, "author", authorNames(p.Authors, " and "))
	if p.Year != 0 {
		writeBibTeXField(&b, "year", fmt.Sprintf("%d", p.Year))
	}
	writeBibTeXField(&b, "journal", p.Journal)
	writeBibTeXField(&b, "doi", p.DOI)
	writeBibTeXField(&b, "url", p.URL)
	writeBibTeXField(&b, "abstract", p.Abstract)
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeBibTeXField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	value = strings.NewReplacer("{", "\\{", "}", "\\}").Replace(value)
	fmt.Fprintf(b, "  %s = {%s},\n", name, value)
}

// citeKey builds a BibTeX-safe identifier like "vaswani2017". Papers
// without authors fall back to the first title word.
func citeKey(p types.Paper) string {
	stem := ""
	if len(p.Authors) > 0 {
		name := p.Authors[0].Name
		if idx := strings.LastIndex(name, " "); idx >= 0 {
			name = name[idx+1:]
		}
		stem = name
	} else if fields := strings.Fields(p.Title); len(fields) > 0 {
		stem = fields[0]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		b.WriteString("paper")
	}
	if p.Year != 0 {
		fmt.Fprintf(&b, "%d", p.Year)
	}
	return b.String()
}
