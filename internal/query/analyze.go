// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

// Tree-walking helpers for filter kinds a provider cannot push to its
// remote API: the provider strips the unsupported subtree, sends the
// remainder, and applies the stripped filter locally.
//
// All helpers are pure; they never mutate the input tree.

// ExtractFulltextTerm returns the value of the first fulltext leaf in
// pre-order (left before right through And/Or/Not), or ok=false when
// the tree has none. Only the first leaf is used when several exist.
func ExtractFulltextTerm(q Query) (string, bool) {
	switch n := q.(type) {
	case Field:
		if n.Key == KeyFulltext {
			return n.Value, true
		}
		return "", false
	case And:
		if v, ok := ExtractFulltextTerm(n.Left); ok {
			return v, true
		}
		return ExtractFulltextTerm(n.Right)
	case Or:
		if v, ok := ExtractFulltextTerm(n.Left); ok {
			return v, true
		}
		return ExtractFulltextTerm(n.Right)
	case Not:
		return ExtractFulltextTerm(n.Operand)
	case YearRange, CitationRange:
		return "", false
	default:
		panic("query: unhandled node type in ExtractFulltextTerm")
	}
}

// HasFulltext reports whether any fulltext leaf exists in the tree.
func HasFulltext(q Query) bool {
	_, ok := ExtractFulltextTerm(q)
	return ok
}

// RemoveFulltext returns a new tree with every fulltext leaf removed.
// Removing one side of an And/Or collapses the node to the surviving
// sibling; removing the operand of Not, or the whole tree, returns nil,
// meaning no remote-queryable predicate remains. Callers must treat a
// nil result as "cannot query the remote API", never as an empty filter.
func RemoveFulltext(q Query) Query {
	return remove(q, func(f Field) bool { return f.Key == KeyFulltext })
}

// ExtractCitationRange returns the first CitationRange node in
// pre-order, or ok=false when the tree has none.
func ExtractCitationRange(q Query) (CitationRange, bool) {
	switch n := q.(type) {
	case CitationRange:
		return n, true
	case And:
		if c, ok := ExtractCitationRange(n.Left); ok {
			return c, true
		}
		return ExtractCitationRange(n.Right)
	case Or:
		if c, ok := ExtractCitationRange(n.Left); ok {
			return c, true
		}
		return ExtractCitationRange(n.Right)
	case Not:
		return ExtractCitationRange(n.Operand)
	case Field, YearRange:
		return CitationRange{}, false
	default:
		panic("query: unhandled node type in ExtractCitationRange")
	}
}

// RemoveCitationRange returns a new tree with every CitationRange node
// removed, with the same collapse rules as RemoveFulltext.
func RemoveCitationRange(q Query) Query {
	return removeNode(q, func(n Query) bool {
		_, isCitation := n.(CitationRange)
		return isCitation
	})
}

// remove strips Field leaves matching the predicate.
func remove(q Query, drop func(Field) bool) Query {
	return removeNode(q, func(n Query) bool {
		f, isField := n.(Field)
		return isField && drop(f)
	})
}

// removeNode rebuilds the tree without nodes matching drop. Returns nil
// when nothing survives.
func removeNode(q Query, drop func(Query) bool) Query {
	if drop(q) {
		return nil
	}
	switch n := q.(type) {
	case Field, YearRange, CitationRange:
		return q
	case And:
		left := removeNode(n.Left, drop)
		right := removeNode(n.Right, drop)
		switch {
		case left == nil && right == nil:
			return nil
		case left == nil:
			return right
		case right == nil:
			return left
		default:
			return And{Left: left, Right: right}
		}
	case Or:
		left := removeNode(n.Left, drop)
		right := removeNode(n.Right, drop)
		switch {
		case left == nil && right == nil:
			return nil
		case left == nil:
			return right
		case right == nil:
			return left
		default:
			return Or{Left: left, Right: right}
		}
	case Not:
		operand := removeNode(n.Operand, drop)
		if operand == nil {
			return nil
		}
		return Not{Operand: operand}
	default:
		panic("query: unhandled node type in removeNode")
	}
}
