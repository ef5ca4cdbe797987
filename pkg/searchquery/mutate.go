// Package searchquery builds and edits search query strings as plain text.
package searchquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const negation = "NOT "

// Mutator adds clauses to a query string.
type Mutator interface {
	// AddField combines field:value with query using AND. A field prefixed
	// with "NOT " toggles the negated clause instead.
	AddField(query, field string, value any) string
}

// TextMutator edits the rendered query text with substring matching; it does
// not parse the query. A value that textually contains another clause can
// make it remove the wrong text. Removal also drops the AND/OR joining the
// clause and any parentheses it leaves empty; a NOT in front of a removed
// group is kept.
type TextMutator struct{}

var _ Mutator = TextMutator{}

// DefaultMutator is used by AddFieldToQuery.
var DefaultMutator Mutator = TextMutator{}

// AddFieldToQuery adds, removes or toggles a field:value clause in query.
func AddFieldToQuery(query, field string, value any) string {
	return DefaultMutator.AddField(query, field, value)
}

// AddField implements Mutator.
//
// A negated field removes the positive clause if present, else removes an
// existing negated clause, else appends the negated clause. A plain field
// removes the negated clause if present, else appends the positive clause
// unless it is already there.
func (TextMutator) AddField(query, field string, value any) string {
	negated := strings.HasPrefix(field, negation)
	positive := strings.TrimPrefix(field, negation) + ":" + EscapeSearchValue(value)
	negative := negation + positive

	var out string
	if negated {
		if rest, ok := removeClause(query, positive, true); ok {
			out = rest
		} else if rest, ok := removeClause(query, negative, false); ok {
			out = rest
		} else {
			out = appendClause(query, negative)
		}
	} else {
		if rest, ok := removeClause(query, negative, false); ok {
			out = rest
		} else if findClause(query, positive, true) >= 0 {
			out = query
		} else {
			out = appendClause(query, positive)
		}
	}
	return cleanup(out)
}

func appendClause(query, clause string) string {
	return strings.TrimSpace(query) + " AND " + clause
}

func cleanup(query string) string {
	query = strings.TrimSpace(query)
	return strings.TrimPrefix(query, "AND ")
}

// findClause returns the offset of the first occurrence of clause that
// starts and ends on a clause boundary. With skipNegated, occurrences right
// after "NOT " are ignored.
func findClause(query, clause string, skipNegated bool) int {
	for from := 0; from <= len(query); {
		i := strings.Index(query[from:], clause)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(clause)
		negatedHere := i >= len(negation) && query[i-len(negation):i] == negation
		if boundaryBefore(query, i) && boundaryAfter(query, end) && !(skipNegated && negatedHere) {
			return i
		}
		from = i + 1
	}
	return -1
}

func boundaryBefore(query string, i int) bool {
	return i == 0 || strings.ContainsRune(" \t\n(", rune(query[i-1]))
}

func boundaryAfter(query string, end int) bool {
	return end == len(query) || strings.ContainsRune(" \t\n)", rune(query[end]))
}

const space = " \t\n"

var connectors = []string{"AND", "OR"}

// removeClause splices clause out of query together with the connector that
// joined it, and drops parentheses left empty. The remaining halves are
// joined with a single space.
func removeClause(query, clause string, skipNegated bool) (string, bool) {
	i := findClause(query, clause, skipNegated)
	if i < 0 {
		return query, false
	}
	left := strings.TrimRight(query[:i], space)
	right := strings.TrimLeft(query[i+len(clause):], space)
	for {
		var dropped bool
		if left, dropped = trimConnectorSuffix(left); !dropped && (left == "" || strings.HasSuffix(left, "(")) {
			right = trimConnectorPrefix(right)
		}
		if !strings.HasSuffix(left, "(") || !strings.HasPrefix(right, ")") {
			break
		}
		left = strings.TrimRight(left[:len(left)-1], space)
		right = strings.TrimLeft(right[1:], space)
	}
	switch {
	case left == "":
		return right, true
	case right == "":
		return left, true
	case strings.HasSuffix(left, "("), strings.HasPrefix(right, ")"):
		return left + right, true
	}
	return left + " " + right, true
}

func trimConnectorSuffix(s string) (string, bool) {
	for _, c := range connectors {
		if rest, ok := strings.CutSuffix(s, c); ok && boundaryBefore(s, len(rest)) {
			return strings.TrimRight(rest, space), true
		}
	}
	return s, false
}

func trimConnectorPrefix(s string) string {
	for _, c := range connectors {
		if rest, ok := strings.CutPrefix(s, c); ok && boundaryAfter(s, len(c)) {
			return strings.TrimLeft(rest, space)
		}
	}
	return s
}

// EscapeSearchValue renders value for use after a field separator. Strings
// are JSON-quoted, nil is null and anything else is printed as-is.
func EscapeSearchValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Sprintf("%q", v)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	default:
		return fmt.Sprint(v)
	}
}
