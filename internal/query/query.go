// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query defines the search-predicate expression tree shared by
// all provider adapters, the Scopus-style text parser that produces it,
// and tree-walking helpers for filters a provider cannot push to its
// remote API.
//
// The tree is a closed set of node types: Field, And, Or, Not,
// YearRange and CitationRange. Nodes are immutable values; all node
// types are comparable, so == on Query values is structural equality
// and trees can serve directly as map keys. Translators dispatch with
// an exhaustive type switch and panic on an unknown node type, so
// adding a node type breaks loudly rather than silently.
package query

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Query is one node of the search expression tree. The interface is
// sealed: only the node types in this package implement it.
type Query interface {
	// String renders the node in the textual query syntax accepted by
	// Parse, as far as the syntax can express it.
	String() string

	isQuery()
}

// FieldKey names the metadata field a Field leaf matches against.
type FieldKey string

const (
	KeyTitle    FieldKey = "title"
	KeyAbstract FieldKey = "abstract"
	KeyAuthor   FieldKey = "author"
	KeyKeyword  FieldKey = "keyword"
	KeyDOI      FieldKey = "doi"
	KeyFulltext FieldKey = "fulltext"
)

// Field matches one metadata field against a value.
type Field struct {
	Key   FieldKey
	Value string
}

// And is the conjunction of two subqueries.
type And struct {
	Left, Right Query
}

// Or is the disjunction of two subqueries.
type Or struct {
	Left, Right Query
}

// Not negates one subquery.
type Not struct {
	Operand Query
}

// Bound is an optional inclusive endpoint of a numeric range. The zero
// Bound is an open (absent) endpoint.
type Bound struct {
	Value int
	OK    bool
}

// At returns a present bound at v.
func At(v int) Bound { return Bound{Value: v, OK: true} }

// Open is the absent endpoint of a half-open range.
var Open = Bound{}

// YearRange bounds the publication year, inclusive on both ends. Either
// endpoint may be open.
type YearRange struct {
	Start, End Bound
}

// CitationRange bounds the citation count, inclusive on both ends.
// Either endpoint may be open.
type CitationRange struct {
	Min, Max Bound
}

func (Field) isQuery()         {}
func (And) isQuery()           {}
func (Or) isQuery()            {}
func (Not) isQuery()           {}
func (YearRange) isQuery()     {}
func (CitationRange) isQuery() {}

// Leaf factories. No validation happens here: Year(2024, 2020) is a
// legal tree and it is the translator's job to interpret or reject it.

// Title matches the paper title.
func Title(v string) Field { return Field{Key: KeyTitle, Value: v} }

// Abstract matches the abstract text.
func Abstract(v string) Field { return Field{Key: KeyAbstract, Value: v} }

// Author matches an author name.
func Author(v string) Field { return Field{Key: KeyAuthor, Value: v} }

// Keyword matches an author- or index-assigned keyword.
func Keyword(v string) Field { return Field{Key: KeyKeyword, Value: v} }

// DOI matches the document identifier exactly.
func DOI(v string) Field { return Field{Key: KeyDOI, Value: v} }

// Fulltext matches anywhere in the full document text.
func Fulltext(v string) Field { return Field{Key: KeyFulltext, Value: v} }

// Year bounds the publication year. Use Open for a one-sided range.
func Year(start, end Bound) YearRange { return YearRange{Start: start, End: end} }

// YearExact restricts the publication year to exactly y.
func YearExact(y int) YearRange { return YearRange{Start: At(y), End: At(y)} }

// Citations bounds the citation count. Use Open for a one-sided range.
func Citations(min, max Bound) CitationRange { return CitationRange{Min: min, Max: max} }

var fieldIdents = map[FieldKey]string{
	KeyTitle:    "TITLE",
	KeyAbstract: "ABSTRACT",
	KeyAuthor:   "AUTHOR",
	KeyKeyword:  "KEYWORD",
	KeyDOI:      "DOI",
	KeyFulltext: "ALL",
}

func (f Field) String() string {
	ident, ok := fieldIdents[f.Key]
	if !ok {
		ident = strings.ToUpper(string(f.Key))
	}
	return fmt.Sprintf("%s(%s)", ident, f.Value)
}

func (a And) String() string {
	return fmt.Sprintf("(%s AND %s)", a.Left, a.Right)
}

func (o Or) String() string {
	return fmt.Sprintf("(%s OR %s)", o.Left, o.Right)
}

func (n Not) String() string {
	return fmt.Sprintf("NOT %s", n.Operand)
}

func (y YearRange) String() string {
	switch {
	case y.Start.OK && y.End.OK && y.Start.Value == y.End.Value:
		return fmt.Sprintf("PUBYEAR = %d", y.Start.Value)
	case y.Start.OK && y.End.OK:
		return fmt.Sprintf("(PUBYEAR >= %d AND PUBYEAR <= %d)", y.Start.Value, y.End.Value)
	case y.Start.OK:
		return fmt.Sprintf("PUBYEAR >= %d", y.Start.Value)
	case y.End.OK:
		return fmt.Sprintf("PUBYEAR <= %d", y.End.Value)
	default:
		return ""
	}
}

// CitationRange has no textual syntax; String renders a debug form that
// Parse does not accept.
func (c CitationRange) String() string {
	min, max := "", ""
	if c.Min.OK {
		min = fmt.Sprintf("%d", c.Min.Value)
	}
	if c.Max.OK {
		max = fmt.Sprintf("%d", c.Max.Value)
	}
	return fmt.Sprintf("CITATIONS(%s..%s)", min, max)
}

// Hash returns a 64-bit hash of the tree, consistent with structural
// equality: equal trees hash equally.
func Hash(q Query) uint64 {
	h := fnv.New64a()
	writeCanonical(h, q)
	return h.Sum64()
}

// writeCanonical writes an unambiguous encoding of the tree. Node tags
// and length-prefixed values keep distinct trees from colliding on
// rendered text alone.
func writeCanonical(h interface{ Write([]byte) (int, error) }, q Query) {
	switch n := q.(type) {
	case Field:
		fmt.Fprintf(h, "F:%s:%d:%s", n.Key, len(n.Value), n.Value)
	case And:
		fmt.Fprint(h, "A(")
		writeCanonical(h, n.Left)
		fmt.Fprint(h, ",")
		writeCanonical(h, n.Right)
		fmt.Fprint(h, ")")
	case Or:
		fmt.Fprint(h, "O(")
		writeCanonical(h, n.Left)
		fmt.Fprint(h, ",")
		writeCanonical(h, n.Right)
		fmt.Fprint(h, ")")
	case Not:
		fmt.Fprint(h, "N(")
		writeCanonical(h, n.Operand)
		fmt.Fprint(h, ")")
	case YearRange:
		fmt.Fprintf(h, "Y:%v:%d:%v:%d", n.Start.OK, n.Start.Value, n.End.OK, n.End.Value)
	case CitationRange:
		fmt.Fprintf(h, "C:%v:%d:%v:%d", n.Min.OK, n.Min.Value, n.Max.OK, n.Max.Value)
	default:
		panic(fmt.Sprintf("query: unhandled node type %T", q))
	}
}
