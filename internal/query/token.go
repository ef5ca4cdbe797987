//revive:disable:exported
package query

import "fmt"

// Kind identifies the lexical class of a token.
type Kind int

const (
	KindWhitespace    Kind = iota // One or more whitespace characters, newlines included
	KindBoolOp                    // AND, OR
	KindNot                       // NOT
	KindTerm                      // Bare word in expression mode (field name part)
	KindPhrase                    // Quoted phrase in expression mode (quoted field name part)
	KindFieldSep                  // "." between field path segments
	KindArrayWildcard             // "*" after a field name (any array element)
	KindValueSep                  // ":" between field and value
	KindLParen                    // "(" grouping
	KindRParen                    // ")" closing a group or a subquery
	KindCompareOp                 // >, >=, <, <=
	KindRangeOpen                 // "[" or "{"
	KindSubqueryOpen              // "(" directly after a value separator
	KindValueTerm                 // Bare value, may contain wildcards and punctuation
	KindValuePhrase               // Quoted value
	KindRangeTo                   // TO keyword inside a range
	KindRangeTerm                 // Bare range bound
	KindRangePhrase               // Quoted range bound
	KindRangeClose                // "]" or "}"
	KindEOF                       // End of input; never produced by the lexer
)

//revive:enable:exported

var kindNames = [...]string{
	KindWhitespace:    "whitespace",
	KindBoolOp:        "boolean operator",
	KindNot:           "NOT",
	KindTerm:          "term",
	KindPhrase:        "phrase",
	KindFieldSep:      "field separator",
	KindArrayWildcard: "array wildcard",
	KindValueSep:      "value separator",
	KindLParen:        "opening parenthesis",
	KindRParen:        "closing parenthesis",
	KindCompareOp:     "comparison operator",
	KindRangeOpen:     "range start",
	KindSubqueryOpen:  "subquery start",
	KindValueTerm:     "value",
	KindValuePhrase:   "quoted value",
	KindRangeTo:       "TO",
	KindRangeTerm:     "range bound",
	KindRangePhrase:   "quoted range bound",
	KindRangeClose:    "range end",
	KindEOF:           "end of query",
}

// String returns a human readable name of the token kind, suitable for syntax hints.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsFieldPart reports whether tokens of this kind can be part of a field path.
func (k Kind) IsFieldPart() bool {
	return k == KindTerm || k == KindPhrase || k == KindFieldSep || k == KindArrayWildcard
}

// Mode is a lexical mode of the tokenizer. Each mode has its own rule set.
type Mode int

const (
	// ModeExpression is the default mode: field names, operators and grouping.
	ModeExpression Mode = iota
	// ModeValue is entered after a value separator.
	ModeValue
	// ModeRange is entered after a range opening bracket.
	ModeRange

	modeKeep Mode = -1
)

func (m Mode) String() string {
	switch m {
	case ModeExpression:
		return "expression"
	case ModeValue:
		return "value"
	case ModeRange:
		return "range"
	case modeKeep:
		return "keep"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText renders the mode by name in JSON and YAML output.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Token is a single lexeme of a query. Tokens are immutable once produced.
type Token struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Text   string `json:"text" yaml:"text"`
	Offset int    `json:"offset" yaml:"offset"` // Byte offset of the first character in the query
	Mode   Mode   `json:"mode" yaml:"mode"`     // Lexical mode the token was matched in
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + len(t.Text)
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q@%d", t.Kind, t.Text, t.Offset)
}
