package sparql

import (
	"fmt"

	"ontoscope/internal/domain"
)

// SyntaxError reports a malformed query
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// UnsupportedError reports a valid SPARQL construct this engine does not evaluate
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported SPARQL feature: %s", e.Feature)
}

// Node is one position of a triple pattern: a variable or a constant term
type Node struct {
	Var  string
	Term domain.Term
}

// IsVar reports whether the node is a variable
func (n Node) IsVar() bool { return n.Var != "" }

func (n Node) String() string {
	if n.IsVar() {
		return "?" + n.Var
	}
	return n.Term.Key()
}

// TriplePattern is a triple whose positions may be variables
type TriplePattern struct {
	Subject   Node
	Predicate Node
	Object    Node
}

func (p TriplePattern) nodes() [3]Node {
	return [3]Node{p.Subject, p.Predicate, p.Object}
}

// OrderKey is one ORDER BY condition
type OrderKey struct {
	Expr Expr
	Desc bool
}

// Query is a parsed SELECT or ASK query
type Query struct {
	Form     domain.QueryForm
	Distinct bool
	// Projection lists the selected variables; nil means SELECT *.
	Projection []string
	Patterns   []TriplePattern
	Filters    []Expr
	Order      []OrderKey
	Limit      int // -1 when absent
	Offset     int
}

// hiddenPrefix marks variables introduced for blank nodes in patterns.
// They join like variables but are never projected.
const hiddenPrefix = "_:"

// Vars returns the visible variables in order of first appearance
func (q *Query) Vars() []string {
	seen := make(map[string]bool)
	var vars []string
	for _, p := range q.Patterns {
		for _, n := range p.nodes() {
			if n.IsVar() && !isHidden(n.Var) && !seen[n.Var] {
				seen[n.Var] = true
				vars = append(vars, n.Var)
			}
		}
	}
	return vars
}

// ResultVars returns the variables of the result table
func (q *Query) ResultVars() []string {
	if q.Form == domain.QueryFormAsk {
		return nil
	}
	if q.Projection != nil {
		return q.Projection
	}
	return q.Vars()
}

func isHidden(v string) bool {
	return len(v) >= len(hiddenPrefix) && v[:len(hiddenPrefix)] == hiddenPrefix
}
