// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports a malformed query string, with the byte offset
// and the offending fragment of the input.
type SyntaxError struct {
	Msg  string
	Pos  int
	Near string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("query syntax error at %d: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("query syntax error at %d: %s (near %q)", e.Pos, e.Msg, e.Near)
}

// Parse converts a Scopus-style query string into a Query tree.
//
// The grammar:
//
//	query        := or_expr
//	or_expr      := and_expr (OR and_expr)*
//	and_expr     := not_expr (AND not_expr)*
//	not_expr     := [NOT] primary
//	primary      := field_call | pubyear_expr | "(" query ")"
//	field_call   := IDENT "(" TEXT ")"
//	pubyear_expr := "PUBYEAR" (= | > | < | >= | <=) INTEGER
//
// AND, OR and NOT are case-sensitive keywords with the usual precedence
// (NOT > AND > OR) and left associativity. Field idents are TITLE,
// ABSTRACT, AUTHOR, KEYWORD, DOI, ALL and TITLE-ABS-KEY; ALL maps to a
// fulltext leaf and TITLE-ABS-KEY expands to title OR abstract OR
// keyword. The field-call argument is taken verbatim up to the matching
// ')'; nested parentheses inside an argument are not supported.
func Parse(text string) (Query, error) {
	s := &scanner{input: text}
	s.skipSpace()
	if s.eof() {
		return nil, &SyntaxError{Msg: "empty query", Pos: 0}
	}
	q, err := s.parseOr()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if !s.eof() {
		return nil, s.errorf("unexpected trailing input")
	}
	return q, nil
}

type scanner struct {
	input string
	pos   int
}

func (s *scanner) eof() bool { return s.pos >= len(s.input) }

func (s *scanner) skipSpace() {
	for !s.eof() && (s.input[s.pos] == ' ' || s.input[s.pos] == '\t') {
		s.pos++
	}
}

// errorf builds a SyntaxError at the current position, quoting up to 20
// characters of the remaining input.
func (s *scanner) errorf(format string, args ...any) *SyntaxError {
	near := s.input[s.pos:]
	if len(near) > 20 {
		near = near[:20]
	}
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Pos: s.pos, Near: near}
}

// readWord consumes a run of letters and dashes (dashes occur in
// TITLE-ABS-KEY). Returns "" without advancing when no word starts here.
func (s *scanner) readWord() string {
	start := s.pos
	for !s.eof() {
		c := s.input[s.pos]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '-' {
			s.pos++
			continue
		}
		break
	}
	return s.input[start:s.pos]
}

// acceptWord consumes the next word when it equals w.
func (s *scanner) acceptWord(w string) bool {
	saved := s.pos
	s.skipSpace()
	if s.readWord() == w {
		return true
	}
	s.pos = saved
	return false
}

func (s *scanner) parseOr() (Query, error) {
	left, err := s.parseAnd()
	if err != nil {
		return nil, err
	}
	for s.acceptWord("OR") {
		right, err := s.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (s *scanner) parseAnd() (Query, error) {
	left, err := s.parseNot()
	if err != nil {
		return nil, err
	}
	for s.acceptWord("AND") {
		right, err := s.parseNot()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (s *scanner) parseNot() (Query, error) {
	if s.acceptWord("NOT") {
		operand, err := s.parsePrimary()
		if err != nil {
			return nil, err
		}
		return Not{Operand: operand}, nil
	}
	return s.parsePrimary()
}

// parseIdents maps field-call idents to leaf keys. TITLE-ABS-KEY is
// handled separately because it expands to three leaves.
var parseIdents = map[string]FieldKey{
	"TITLE":    KeyTitle,
	"ABSTRACT": KeyAbstract,
	"AUTHOR":   KeyAuthor,
	"KEYWORD":  KeyKeyword,
	"DOI":      KeyDOI,
	"ALL":      KeyFulltext,
}

func (s *scanner) parsePrimary() (Query, error) {
	s.skipSpace()
	if s.eof() {
		return nil, s.errorf("unexpected end of query")
	}

	if s.input[s.pos] == '(' {
		s.pos++
		q, err := s.parseOr()
		if err != nil {
			return nil, err
		}
		s.skipSpace()
		if s.eof() || s.input[s.pos] != ')' {
			return nil, s.errorf("unmatched opening parenthesis")
		}
		s.pos++
		return q, nil
	}

	wordStart := s.pos
	word := s.readWord()
	if word == "" {
		return nil, s.errorf("expected field call, PUBYEAR or parenthesized query")
	}

	if word == "PUBYEAR" {
		return s.parsePubyear()
	}

	if word == "TITLE-ABS-KEY" {
		value, err := s.readFieldArg()
		if err != nil {
			return nil, err
		}
		return Or{
			Left:  Or{Left: Title(value), Right: Abstract(value)},
			Right: Keyword(value),
		}, nil
	}

	key, ok := parseIdents[word]
	if !ok {
		return nil, &SyntaxError{
			Msg:  fmt.Sprintf("unknown field identifier %q", word),
			Pos:  wordStart,
			Near: word,
		}
	}
	value, err := s.readFieldArg()
	if err != nil {
		return nil, err
	}
	return Field{Key: key, Value: value}, nil
}

// readFieldArg consumes "(" TEXT ")" after a field ident, returning TEXT
// verbatim.
func (s *scanner) readFieldArg() (string, error) {
	s.skipSpace()
	if s.eof() || s.input[s.pos] != '(' {
		return "", s.errorf("expected '(' after field identifier")
	}
	s.pos++
	end := strings.IndexByte(s.input[s.pos:], ')')
	if end < 0 {
		return "", s.errorf("unmatched opening parenthesis in field call")
	}
	value := s.input[s.pos : s.pos+end]
	s.pos += end + 1
	return value, nil
}

func (s *scanner) parsePubyear() (Query, error) {
	s.skipSpace()

	var cmp string
	for _, op := range []string{">=", "<=", "=", ">", "<"} {
		if strings.HasPrefix(s.input[s.pos:], op) {
			cmp = op
			s.pos += len(op)
			break
		}
	}
	if cmp == "" {
		return nil, s.errorf("expected comparator after PUBYEAR")
	}

	s.skipSpace()
	digitStart := s.pos
	for !s.eof() && s.input[s.pos] >= '0' && s.input[s.pos] <= '9' {
		s.pos++
	}
	if digitStart == s.pos {
		return nil, s.errorf("expected year after PUBYEAR %s", cmp)
	}
	year, err := strconv.Atoi(s.input[digitStart:s.pos])
	if err != nil {
		return nil, &SyntaxError{
			Msg:  "invalid year",
			Pos:  digitStart,
			Near: s.input[digitStart:s.pos],
		}
	}

	switch cmp {
	case "=":
		return YearExact(year), nil
	case ">":
		return Year(At(year+1), Open), nil
	case "<":
		return Year(Open, At(year-1)), nil
	case ">=":
		return Year(At(year), Open), nil
	default: // "<="
		return Year(Open, At(year)), nil
	}
}
