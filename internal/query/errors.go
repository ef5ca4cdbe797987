package query

import (
	"errors"
	"fmt"
	"strings"
)

// LexError reports input that no tokenizer rule of the current mode matches.
type LexError struct {
	Offset int    `json:"offset"`
	Mode   Mode   `json:"mode"`
	Text   string `json:"text"`
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unexpected input %q at offset %d (%s mode)", e.Text, e.Offset, e.Mode)
}

// Pos returns the byte offset of the offending input.
func (e *LexError) Pos() int {
	return e.Offset
}

// GrammarError reports a token that is not allowed in the current grammar state.
type GrammarError struct {
	Token    Token  `json:"token"`
	State    State  `json:"state"`
	Expected []Kind `json:"expected,omitempty"`
}

func (e *GrammarError) Error() string {
	var b strings.Builder
	if e.Token.Kind == KindEOF {
		fmt.Fprintf(&b, "unexpected end of query at offset %d in state %s", e.Token.Offset, e.State)
	} else {
		fmt.Fprintf(&b, "unexpected %s %q at offset %d in state %s", e.Token.Kind, e.Token.Text, e.Token.Offset, e.State)
	}
	if len(e.Expected) > 0 {
		names := make([]string, len(e.Expected))
		for i, k := range e.Expected {
			names[i] = k.String()
		}
		fmt.Fprintf(&b, " (expected %s)", strings.Join(names, ", "))
	}
	return b.String()
}

// Pos returns the byte offset of the offending token.
func (e *GrammarError) Pos() int {
	return e.Token.Offset
}

// ErrorOffset extracts the input offset from a lex or grammar error.
func ErrorOffset(err error) (int, bool) {
	var pe interface{ Pos() int }
	if errors.As(err, &pe) {
		return pe.Pos(), true
	}
	return 0, false
}
