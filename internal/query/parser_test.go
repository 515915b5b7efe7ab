// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, text string) Query {
	t.Helper()
	q, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return q
}

func TestParseSingleField(t *testing.T) {
	tests := []struct {
		input string
		want  Query
	}{
		{"TITLE(transformer)", Title("transformer")},
		{"ABSTRACT(attention mechanism)", Abstract("attention mechanism")},
		{"AUTHOR(Bengio)", Author("Bengio")},
		{"KEYWORD(deep learning)", Keyword("deep learning")},
		{"DOI(10.1038/nature14539)", DOI("10.1038/nature14539")},
		{"ALL(attention mechanism)", Fulltext("attention mechanism")},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := mustParse(t, tt.input); got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTitleAbsKeyExpansion(t *testing.T) {
	got := mustParse(t, "TITLE-ABS-KEY(deep learning)")
	want := Or{
		Left:  Or{Left: Title("deep learning"), Right: Abstract("deep learning")},
		Right: Keyword("deep learning"),
	}
	if got != want {
		t.Errorf("Parse = %v, want %v", got, want)
	}
}

func TestParseBooleanOperators(t *testing.T) {
	t.Run("and", func(t *testing.T) {
		got := mustParse(t, "TITLE(transformer) AND AUTHOR(Vaswani)")
		want := And{Left: Title("transformer"), Right: Author("Vaswani")}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("or", func(t *testing.T) {
		got := mustParse(t, "TITLE(BERT) OR TITLE(GPT)")
		want := Or{Left: Title("BERT"), Right: Title("GPT")}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("and not", func(t *testing.T) {
		got := mustParse(t, "TITLE(neural) AND NOT AUTHOR(Smith)")
		want := And{Left: Title("neural"), Right: Not{Operand: Author("Smith")}}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("and binds tighter than or", func(t *testing.T) {
		got := mustParse(t, "TITLE(a) OR TITLE(b) AND AUTHOR(c)")
		want := Or{
			Left:  Title("a"),
			Right: And{Left: Title("b"), Right: Author("c")},
		}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("left associative", func(t *testing.T) {
		got := mustParse(t, "TITLE(a) AND TITLE(b) AND TITLE(c)")
		want := And{
			Left:  And{Left: Title("a"), Right: Title("b")},
			Right: Title("c"),
		}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("parentheses override precedence", func(t *testing.T) {
		got := mustParse(t, "(TITLE(a) OR TITLE(b)) AND AUTHOR(c)")
		want := And{
			Left:  Or{Left: Title("a"), Right: Title("b")},
			Right: Author("c"),
		}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})
}

func TestParsePubyear(t *testing.T) {
	tests := []struct {
		input string
		want  YearRange
	}{
		{"PUBYEAR = 2020", YearExact(2020)},
		{"PUBYEAR > 2020", Year(At(2021), Open)},
		{"PUBYEAR < 2020", Year(Open, At(2019))},
		{"PUBYEAR >= 2020", Year(At(2020), Open)},
		{"PUBYEAR <= 2020", Year(Open, At(2020))},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := mustParse(t, tt.input)
			if got != Query(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseComplexQuery(t *testing.T) {
	got := mustParse(t, "TITLE-ABS-KEY(deep learning) AND AUTHOR(Hinton) AND PUBYEAR > 2015")
	outer, ok := got.(And)
	if !ok {
		t.Fatalf("top node = %T, want And", got)
	}
	if outer.Right != Query(Year(At(2016), Open)) {
		t.Errorf("rightmost = %v, want PUBYEAR > 2015 range", outer.Right)
	}
	inner, ok := outer.Left.(And)
	if !ok {
		t.Fatalf("left node = %T, want And", outer.Left)
	}
	if inner.Right != Query(Author("Hinton")) {
		t.Errorf("inner right = %v, want AUTHOR(Hinton)", inner.Right)
	}
}

func TestParseRoundTrip(t *testing.T) {
	// String() output must parse back into the same tree for field and
	// AND queries.
	trees := []Query{
		Title("transformer"),
		And{Left: Title("x"), Right: Author("y")},
		Or{Left: Title("BERT"), Right: Title("GPT")},
		And{Left: Title("neural"), Right: Not{Operand: Author("Smith")}},
		YearExact(2020),
	}
	for _, tr := range trees {
		t.Run(tr.String(), func(t *testing.T) {
			got, err := Parse(tr.String())
			if err != nil {
				t.Fatalf("Parse(%q): %v", tr.String(), err)
			}
			if got != tr {
				t.Errorf("round trip = %v, want %v", got, tr)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"unknown field", "TITEL(transformer)"},
		{"unmatched paren", "(TITLE(a) OR TITLE(b)"},
		{"unclosed field call", "TITLE(transformer"},
		{"missing arg paren", "TITLE transformer"},
		{"pubyear missing comparator", "PUBYEAR 2020"},
		{"pubyear non-numeric", "PUBYEAR = yesteryear"},
		{"trailing garbage", "TITLE(a) %%"},
		{"dangling operator", "TITLE(a) AND"},
		{"lowercase keyword", "TITLE(a) and TITLE(b)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("error type = %T, want *SyntaxError", err)
			}
			if syntaxErr.Pos < 0 || syntaxErr.Pos > len(tt.input) {
				t.Errorf("Pos = %d, out of range for input of length %d", syntaxErr.Pos, len(tt.input))
			}
		})
	}
}

func TestParseErrorMentionsOffendingInput(t *testing.T) {
	_, err := Parse("TITEL(transformer)")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "TITEL") {
		t.Errorf("error should quote the unknown identifier, got: %v", err)
	}
}

func TestParseVerbatimArgument(t *testing.T) {
	// Field-call arguments keep inner spacing and punctuation verbatim.
	got := mustParse(t, "TITLE(attention: a survey, 2nd ed.)")
	want := Title("attention: a survey, 2nd ed.")
	if got != Query(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
