// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/litmesh/pkg/types"
)

// abstractPreviewLen caps the abstract shown in tree output.
const abstractPreviewLen = 200

// Tree renders one human-readable block per paper. It is the terminal
// default and the only format that works per-paper, which is what the
// streaming search path prints as results arrive.
type Tree struct{}

func (Tree) Export(w io.Writer, result *types.SearchResult) error {
	for i, p := range result.Papers {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, FormatPaper(p)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// FormatPaper renders a single paper as a tree block, without a
// trailing newline.
func FormatPaper(p types.Paper) string {
	title := p.Title
	if p.Year != 0 {
		title = fmt.Sprintf("%s (%d)", p.Title, p.Year)
	}

	var lines []string
	if len(p.Authors) > 0 {
		lines = append(lines, "Authors: "+authorNames(p.Authors, ", "))
	}
	meta := "Source: " + p.Source
	if p.Citations != nil {
		meta += fmt.Sprintf("  Citations: %d", *p.Citations)
	}
	lines = append(lines, meta)
	if p.Journal != "" {
		lines = append(lines, "Journal: "+p.Journal)
	}
	if p.DOI != "" {
		lines = append(lines, "DOI: "+p.DOI)
	}
	if p.URL != "" {
		lines = append(lines, "URL: "+p.URL)
	}
	if len(p.Topics) > 0 {
		lines = append(lines, "Topics: "+strings.Join(p.Topics, ", "))
	}
	if p.Abstract != "" {
		lines = append(lines, "Abstract: "+truncate(p.Abstract, abstractPreviewLen))
	}

	var b strings.Builder
	b.WriteString(title)
	for i, line := range lines {
		b.WriteString("\n")
		if i == len(lines)-1 {
			b.WriteString("└─ ")
		} else {
			b.WriteString("├─ ")
		}
		b.WriteString(line)
	}
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
