// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import "testing"

func TestFactoriesBuildLeaves(t *testing.T) {
	tests := []struct {
		name string
		got  Field
		key  FieldKey
	}{
		{"title", Title("transformer"), KeyTitle},
		{"abstract", Abstract("attention"), KeyAbstract},
		{"author", Author("Vaswani"), KeyAuthor},
		{"keyword", Keyword("nlp"), KeyKeyword},
		{"doi", DOI("10.1234/x"), KeyDOI},
		{"fulltext", Fulltext("gradient"), KeyFulltext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.got.Key, tt.key)
			}
		})
	}
}

func TestStructuralEquality(t *testing.T) {
	a := And{Left: Title("transformer"), Right: Author("Vaswani")}
	b := And{Left: Title("transformer"), Right: Author("Vaswani")}
	if a != b {
		t.Error("identical trees should compare equal")
	}

	c := And{Left: Author("Vaswani"), Right: Title("transformer")}
	if a == c {
		t.Error("operand order is part of the structure")
	}

	var q1 Query = Or{Left: Title("BERT"), Right: Not{Operand: Keyword("survey")}}
	var q2 Query = Or{Left: Title("BERT"), Right: Not{Operand: Keyword("survey")}}
	if q1 != q2 {
		t.Error("equality should hold through interface values")
	}
}

func TestHashConsistentWithEquality(t *testing.T) {
	trees := []Query{
		Title("transformer"),
		And{Left: Title("a"), Right: Author("b")},
		Or{Left: Or{Left: Title("x"), Right: Abstract("x")}, Right: Keyword("x")},
		Not{Operand: Fulltext("diffusion")},
		Year(At(2020), At(2024)),
		Citations(At(10), Open),
	}
	for _, tr := range trees {
		if Hash(tr) != Hash(tr) {
			t.Errorf("hash not deterministic for %v", tr)
		}
	}

	a := And{Left: Title("transformer"), Right: Author("Vaswani")}
	b := And{Left: Title("transformer"), Right: Author("Vaswani")}
	if Hash(a) != Hash(b) {
		t.Error("equal trees must hash equally")
	}
}

func TestHashDistinguishesShape(t *testing.T) {
	// Same leaves, different combinator.
	a := And{Left: Title("x"), Right: Author("y")}
	o := Or{Left: Title("x"), Right: Author("y")}
	if Hash(a) == Hash(o) {
		t.Error("And and Or over the same leaves should hash differently")
	}

	// Value boundaries must not blur together.
	p := And{Left: Title("ab"), Right: Author("c")}
	q := And{Left: Title("a"), Right: Author("bc")}
	if Hash(p) == Hash(q) {
		t.Error("leaf value boundaries should be part of the hash")
	}
}

func TestTreeUsableAsMapKey(t *testing.T) {
	cache := map[Query]int{
		Title("transformer"): 1,
		And{Left: Title("a"), Right: Year(At(2020), Open)}: 2,
	}
	if cache[Title("transformer")] != 1 {
		t.Error("lookup by equal leaf failed")
	}
	if cache[And{Left: Title("a"), Right: Year(At(2020), Open)}] != 2 {
		t.Error("lookup by equal composite failed")
	}
}

func TestStringRendersParseableSyntax(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"field", Title("transformer"), "TITLE(transformer)"},
		{"fulltext uses ALL", Fulltext("attention"), "ALL(attention)"},
		{"and", And{Left: Title("x"), Right: Author("y")}, "(TITLE(x) AND AUTHOR(y))"},
		{"not", Not{Operand: Keyword("survey")}, "NOT KEYWORD(survey)"},
		{"year exact", YearExact(2020), "PUBYEAR = 2020"},
		{"year range", Year(At(2020), At(2024)), "(PUBYEAR >= 2020 AND PUBYEAR <= 2024)"},
		{"year from", Year(At(2021), Open), "PUBYEAR >= 2021"},
		{"year until", Year(Open, At(2019)), "PUBYEAR <= 2019"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNoValidationAtConstruction(t *testing.T) {
	// Inverted bounds are legal trees; translators decide what they mean.
	q := Year(At(2024), At(2020))
	if !q.Start.OK || q.Start.Value != 2024 {
		t.Errorf("Start = %+v, want 2024", q.Start)
	}
}
