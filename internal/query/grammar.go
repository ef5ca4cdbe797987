package query

import (
	"errors"
	"io"
)

// State is a node of the token-legality state machine. It is distinct from
// the lexical Mode: the mode picks which rules can match, the state decides
// which of the matched kinds are allowed to appear.
type State string

const (
	StateMain        State = "main"
	StateFieldname   State = "fieldname"
	StateFieldsep    State = "fieldsep"
	StateValueStart  State = "value_start"
	StateValue       State = "value"
	StateValueEnd    State = "value_end"
	StateRangeStart  State = "range_start"
	StateRangeTo     State = "range_to"
	StateRangeEnd    State = "range_end"
	StateRangeFin    State = "range_fin"
	StateAfterBoolOp State = "after_boolop"
)

type transition struct {
	kind Kind
	next State
}

// transitions lists, per state, every token kind allowed as a successor and
// the state it leads to. Order is the order legal kinds are reported in.
var transitions = map[State][]transition{
	StateMain: {
		{KindWhitespace, StateMain},
		{KindTerm, StateFieldname},
		{KindPhrase, StateFieldname},
		{KindLParen, StateMain},
		{KindNot, StateAfterBoolOp},
	},
	StateAfterBoolOp: {
		{KindWhitespace, StateAfterBoolOp},
		{KindTerm, StateFieldname},
		{KindPhrase, StateFieldname},
		{KindLParen, StateMain},
		{KindNot, StateAfterBoolOp},
	},
	StateFieldname: {
		{KindFieldSep, StateFieldsep},
		{KindArrayWildcard, StateFieldname},
		{KindValueSep, StateValueStart},
	},
	StateFieldsep: {
		{KindTerm, StateFieldname},
		{KindPhrase, StateFieldname},
	},
	StateValueStart: {
		{KindWhitespace, StateValueStart},
		{KindCompareOp, StateValue},
		{KindRangeOpen, StateRangeStart},
		{KindSubqueryOpen, StateMain},
		{KindValueTerm, StateValueEnd},
		{KindValuePhrase, StateValueEnd},
	},
	StateValue: {
		{KindValueTerm, StateValueEnd},
		{KindValuePhrase, StateValueEnd},
	},
	StateValueEnd: {
		{KindWhitespace, StateValueEnd},
		{KindRParen, StateValueEnd},
		{KindBoolOp, StateAfterBoolOp},
	},
	StateRangeStart: {
		{KindWhitespace, StateRangeStart},
		{KindRangeTerm, StateRangeTo},
		{KindRangePhrase, StateRangeTo},
	},
	StateRangeTo: {
		{KindWhitespace, StateRangeTo},
		{KindRangeTo, StateRangeEnd},
	},
	StateRangeEnd: {
		{KindWhitespace, StateRangeEnd},
		{KindRangeTerm, StateRangeFin},
		{KindRangePhrase, StateRangeFin},
	},
	StateRangeFin: {
		{KindWhitespace, StateRangeFin},
		{KindRangeClose, StateValueEnd},
	},
}

// finalStates are the states a complete query may end in.
var finalStates = map[State]bool{
	StateMain:     true,
	StateValueEnd: true,
}

// Step is one validated token together with the state it leads to and the
// token kinds that may legally follow it.
type Step struct {
	Token Token  `json:"token" yaml:"token"`
	State State  `json:"state" yaml:"state"`
	Next  []Kind `json:"next" yaml:"next"`
	Depth int    `json:"depth" yaml:"depth"`
}

// Validator replays tokens through the transition table.
type Validator struct {
	state State
	depth int
}

// NewValidator returns a validator in the initial state.
func NewValidator() *Validator {
	return &Validator{state: StateMain}
}

// State returns the current grammar state.
func (v *Validator) State() State {
	return v.state
}

// Depth returns the number of open parentheses, grouping and subquery alike.
func (v *Validator) Depth() int {
	return v.depth
}

// Expected returns the token kinds legal in the current state. A closing
// parenthesis is only legal while a bracket is open.
func (v *Validator) Expected() []Kind {
	ts := transitions[v.state]
	kinds := make([]Kind, 0, len(ts))
	for _, t := range ts {
		if t.kind == KindRParen && v.depth == 0 {
			continue
		}
		kinds = append(kinds, t.kind)
	}
	return kinds
}

// Allows reports whether kind is a legal successor in the current state.
func (v *Validator) Allows(kind Kind) bool {
	for _, k := range v.Expected() {
		if k == kind {
			return true
		}
	}
	return false
}

// Feed advances the state machine by one token. On a *GrammarError the
// validator is left unchanged.
func (v *Validator) Feed(tok Token) (Step, error) {
	next, ok := lookup(v.state, tok.Kind)
	if !ok || (tok.Kind == KindRParen && v.depth == 0) {
		return Step{}, &GrammarError{Token: tok, State: v.state, Expected: v.Expected()}
	}
	switch tok.Kind {
	case KindLParen, KindSubqueryOpen:
		v.depth++
	case KindRParen:
		v.depth--
	default:
	}
	v.state = next
	return Step{Token: tok, State: next, Next: v.Expected(), Depth: v.depth}, nil
}

// Finish checks that the tokens fed so far form a complete query: the state
// must be final and all brackets closed. end is the offset reported on error.
func (v *Validator) Finish(end int) error {
	if finalStates[v.state] && v.depth == 0 {
		return nil
	}
	expected := v.Expected()
	if v.depth > 0 && finalStates[v.state] {
		expected = []Kind{KindRParen}
	}
	return &GrammarError{
		Token:    Token{Kind: KindEOF, Offset: end},
		State:    v.state,
		Expected: expected,
	}
}

func lookup(state State, kind Kind) (State, bool) {
	for _, t := range transitions[state] {
		if t.kind == kind {
			return t.next, true
		}
	}
	return "", false
}

// Validate tokenizes text and checks every token against the grammar. The
// steps accepted before a failure are returned alongside the error.
func Validate(text string) ([]Step, error) {
	lex := Tokenize(text)
	v := NewValidator()
	var steps []Step
	for {
		tok, err := lex.Next()
		if errors.Is(err, io.EOF) {
			return steps, nil
		}
		if err != nil {
			return steps, err
		}
		step, err := v.Feed(tok)
		if err != nil {
			return steps, err
		}
		steps = append(steps, step)
	}
}

// ValidateComplete is Validate followed by a completeness check, for queries
// that are about to be executed rather than edited.
func ValidateComplete(text string) ([]Step, error) {
	steps, err := Validate(text)
	if err != nil {
		return steps, err
	}
	v := NewValidator()
	if len(steps) > 0 {
		last := steps[len(steps)-1]
		v.state, v.depth = last.State, last.Depth
	}
	return steps, v.Finish(len(text))
}
