// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/litmesh/pkg/types"
)

func sampleResult() *types.SearchResult {
	citations := 95000
	return &types.SearchResult{
		Papers: []types.Paper{
			{
				Title: "Attention Is All You Need",
				Authors: []types.Author{
					{Name: "Ashish Vaswani", Affiliation: "Google Brain"},
					{Name: "Noam Shazeer"},
				},
				Year:            2017,
				Source:          "arxiv",
				Abstract:        "We propose the Transformer.",
				DOI:             "10.5555/3295222.3295349",
				URL:             "https://arxiv.org/abs/1706.03762",
				Topics:          []string{"cs.CL", "cs.LG"},
				Citations:       &citations,
				PublicationDate: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
				Journal:         "NeurIPS",
			},
			{
				Title:   "BERT: Pre-training of Deep Bidirectional Transformers",
				Authors: []types.Author{{Name: "Jacob Devlin"}},
				Year:    2019,
				Source:  "semantic_scholar",
			},
		},
		Errors:          map[string]error{"scopus": errors.New("HTTP 401")},
		TotalByProvider: map[string]int{"arxiv": 1, "semantic_scholar": 1},
	}
}

// --- registry ---

func TestGet(t *testing.T) {
	for _, format := range Formats() {
		if _, err := Get(format); err != nil {
			t.Errorf("Get(%q): %v", format, err)
		}
	}
	if _, err := Get("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

// --- json ---

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSON{}).Export(&buf, sampleResult()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var env struct {
		Papers     []types.Paper     `json:"papers"`
		Total      int               `json:"total"`
		ByProvider map[string]int    `json:"by_provider"`
		Errors     map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if env.Total != 2 || len(env.Papers) != 2 {
		t.Errorf("total = %d, papers = %d", env.Total, len(env.Papers))
	}
	if env.Papers[0].DOI != "10.5555/3295222.3295349" {
		t.Errorf("DOI = %q", env.Papers[0].DOI)
	}
	if env.ByProvider["arxiv"] != 1 {
		t.Errorf("by_provider = %v", env.ByProvider)
	}
	if env.Errors["scopus"] != "HTTP 401" {
		t.Errorf("errors = %v", env.Errors)
	}
}

func TestJSONExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSON{}).Export(&buf, &types.SearchResult{}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	// papers must serialize as [] rather than null for stdin piping.
	if !strings.Contains(buf.String(), `"papers": []`) {
		t.Errorf("output = %s, want empty papers array", buf.String())
	}
}

// --- csv ---

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSV{}).Export(&buf, sampleResult()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "title" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Ashish Vaswani; Noam Shazeer" {
		t.Errorf("authors cell = %q", rows[1][1])
	}
	if rows[1][6] != "95000" {
		t.Errorf("citations cell = %q", rows[1][6])
	}
	// Unknown citation count stays empty, not zero.
	if rows[2][6] != "" {
		t.Errorf("citations cell = %q, want empty", rows[2][6])
	}
}

// --- bibtex ---

func TestBibTeXExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (BibTeX{}).Export(&buf, sampleResult()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := buf.String()

	if !strings.Contains(s, "@article{vaswani2017,") {
		t.Errorf("output missing cite key:\n%s", s)
	}
	if !strings.Contains(s, "author = {Ashish Vaswani and Noam Shazeer},") {
		t.Errorf("output missing author list:\n%s", s)
	}
	if !strings.Contains(s, "doi = {10.5555/3295222.3295349},") {
		t.Errorf("output missing doi:\n%s", s)
	}
	if !strings.Contains(s, "@article{devlin2019,") {
		t.Errorf("output missing second entry:\n%s", s)
	}
	// The second paper has no journal; the field must be absent.
	if strings.Count(s, "journal = ") != 1 {
		t.Errorf("expected exactly 1 journal field:\n%s", s)
	}
}

func TestBibTeXCiteKeyCollision(t *testing.T) {
	result := &types.SearchResult{Papers: []types.Paper{
		{Title: "First", Authors: []types.Author{{Name: "Jane Smith"}}, Year: 2020},
		{Title: "Second", Authors: []types.Author{{Name: "John Smith"}}, Year: 2020},
	}}
	var buf bytes.Buffer
	if err := (BibTeX{}).Export(&buf, result); err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := buf.String()
	if !strings.Contains(s, "@article{smith2020,") || !strings.Contains(s, "@article{smith2020-2,") {
		t.Errorf("colliding keys should get suffixes:\n%s", s)
	}
}

func TestCiteKey(t *testing.T) {
	tests := []struct {
		name string
		p    types.Paper
		want string
	}{
		{"family name and year", types.Paper{Authors: []types.Author{{Name: "Ashish Vaswani"}}, Year: 2017}, "vaswani2017"},
		{"single-token name", types.Paper{Authors: []types.Author{{Name: "Aristotle"}}, Year: 1990}, "aristotle1990"},
		{"no authors falls back to title", types.Paper{Title: "Deep Learning", Year: 2015}, "deep2015"},
		{"non-alphanumerics stripped", types.Paper{Authors: []types.Author{{Name: "Kevin O'Brien"}}, Year: 1998}, "obrien1998"},
		{"nothing usable", types.Paper{}, "paper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := citeKey(tt.p); got != tt.want {
				t.Errorf("citeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- ris ---

func TestRISExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (RIS{}).Export(&buf, sampleResult()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := buf.String()

	if strings.Count(s, "TY  - JOUR\n") != 2 || strings.Count(s, "ER  - \n") != 2 {
		t.Errorf("expected 2 complete records:\n%s", s)
	}
	if !strings.Contains(s, "TI  - Attention Is All You Need\n") {
		t.Errorf("output missing title:\n%s", s)
	}
	if strings.Count(s, "AU  - ") != 3 {
		t.Errorf("expected 3 AU tags:\n%s", s)
	}
	if !strings.Contains(s, "DO  - 10.5555/3295222.3295349\n") {
		t.Errorf("output missing DOI:\n%s", s)
	}
	if strings.Count(s, "KW  - ") != 2 {
		t.Errorf("expected 2 KW tags:\n%s", s)
	}
}

// --- tree ---

func TestFormatPaper(t *testing.T) {
	p := sampleResult().Papers[0]
	s := FormatPaper(p)

	if !strings.HasPrefix(s, "Attention Is All You Need (2017)") {
		t.Errorf("first line = %q", strings.SplitN(s, "\n", 2)[0])
	}
	if !strings.Contains(s, "├─ Authors: Ashish Vaswani, Noam Shazeer") {
		t.Errorf("output missing authors:\n%s", s)
	}
	if !strings.Contains(s, "Citations: 95000") {
		t.Errorf("output missing citations:\n%s", s)
	}
	if strings.Count(s, "└─ ") != 1 {
		t.Errorf("exactly one closing branch expected:\n%s", s)
	}
	if strings.HasSuffix(s, "\n") {
		t.Error("FormatPaper must not end with a newline")
	}
}

func TestFormatPaperTruncatesAbstract(t *testing.T) {
	p := types.Paper{
		Title:    "Long",
		Year:     2020,
		Source:   "arxiv",
		Abstract: strings.Repeat("x", 500),
	}
	s := FormatPaper(p)
	if !strings.Contains(s, strings.Repeat("x", abstractPreviewLen)+"...") {
		t.Error("long abstract should be truncated with an ellipsis")
	}
	if strings.Contains(s, strings.Repeat("x", abstractPreviewLen+1)) {
		t.Error("abstract exceeds the preview cap")
	}
}

func TestTreeExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (Tree{}).Export(&buf, sampleResult()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	blocks := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n\n")
	if len(blocks) != 2 {
		t.Errorf("len(blocks) = %d, want 2 papers separated by a blank line", len(blocks))
	}
}

// --- csl ---

func TestToCSLItem(t *testing.T) {
	item := toCSLItem(sampleResult().Papers[0])

	if item.ID != "10.5555/3295222.3295349" {
		t.Errorf("ID = %q, want the DOI", item.ID)
	}
	if item.Type != "article-journal" {
		t.Errorf("Type = %q", item.Type)
	}
	if len(item.Author) != 2 {
		t.Fatalf("len(Author) = %d, want 2", len(item.Author))
	}
	if item.Author[0].Given != "Ashish" || item.Author[0].Family != "Vaswani" {
		t.Errorf("Author[0] = %+v", item.Author[0])
	}
	if item.ContainerTitle != "NeurIPS" {
		t.Errorf("ContainerTitle = %q", item.ContainerTitle)
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2017 || item.Issued.DateParts[0][1] != 6 {
		t.Errorf("Issued = %+v", item.Issued)
	}
}

func TestToCSLItemYearOnly(t *testing.T) {
	item := toCSLItem(types.Paper{Title: "BERT", Year: 2019})

	if item.ID != "bert2019" {
		t.Errorf("ID = %q, want cite-key fallback without a DOI", item.ID)
	}
	if item.Issued == nil || len(item.Issued.DateParts[0]) != 1 || item.Issued.DateParts[0][0] != 2019 {
		t.Errorf("Issued = %+v, want year-only date-parts", item.Issued)
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Ashish Vaswani", CSLName{Given: "Ashish", Family: "Vaswani"}},
		{"Jean de la Fontaine", CSLName{Given: "Jean de la", Family: "Fontaine"}},
		{"Aristotle", CSLName{Literal: "Aristotle"}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		if got := parseAuthorName(tt.in); got != tt.want {
			t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestCSLExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSL{}).Export(&buf, sampleResult()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := buf.String()
	if !strings.Contains(s, "type: article-journal") {
		t.Errorf("output missing CSL type:\n%s", s)
	}
	if !strings.Contains(s, "DOI: 10.5555/3295222.3295349") {
		t.Errorf("output missing DOI field:\n%s", s)
	}
}
