package query

import (
	"io"
	"regexp"
)

// rule matches one token kind in a lexical mode. A rule whose next mode is
// modeKeep leaves the mode unchanged.
type rule struct {
	kind    Kind
	pattern *regexp.Regexp
	next    Mode
}

func anchored(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + pattern + `)`)
}

const (
	whitespacePattern = `\s+`
	phrasePattern     = `"(?:[^"\\]|\\.)*"`
	boolOpPattern     = `AND|OR`
	notPattern        = `NOT`
)

// lexRules is the rule table of the tokenizer, keyed by lexical mode.
// Declaration order matters only for equal-length matches.
var lexRules = map[Mode][]rule{
	ModeExpression: {
		{KindWhitespace, anchored(whitespacePattern), modeKeep},
		{KindBoolOp, anchored(boolOpPattern), modeKeep},
		{KindNot, anchored(notPattern), modeKeep},
		{KindPhrase, anchored(phrasePattern), modeKeep},
		{KindFieldSep, anchored(`\.`), modeKeep},
		{KindTerm, anchored(`(?:\w|\\.)+`), modeKeep},
		{KindArrayWildcard, anchored(`\*`), modeKeep},
		{KindValueSep, anchored(`:`), ModeValue},
		{KindLParen, anchored(`\(`), modeKeep},
		{KindRParen, anchored(`\)`), modeKeep},
	},
	ModeValue: {
		{KindWhitespace, anchored(whitespacePattern), modeKeep},
		{KindCompareOp, anchored(`>=|<=|>|<`), modeKeep},
		{KindRangeOpen, anchored(`[\[{]`), ModeRange},
		{KindSubqueryOpen, anchored(`\(`), ModeExpression},
		{KindBoolOp, anchored(boolOpPattern), ModeExpression},
		{KindNot, anchored(notPattern), ModeExpression},
		{KindValuePhrase, anchored(phrasePattern), ModeExpression},
		{KindValueTerm, anchored(`(?:[^\s()\[\]{}"<>\\]|\\.)(?:[^\s()\[\]{}"\\]|\\.)*`), ModeExpression},
	},
	ModeRange: {
		{KindWhitespace, anchored(whitespacePattern), modeKeep},
		{KindRangeClose, anchored(`[\]}]`), ModeExpression},
		{KindRangeTo, anchored(`TO`), modeKeep},
		{KindRangePhrase, anchored(phrasePattern), modeKeep},
		{KindRangeTerm, anchored(`(?:[^\s\[\]{}"\\]|\\.)+`), modeKeep},
	},
}

// Lexer produces tokens of a query lazily, left to right.
type Lexer struct {
	input string
	pos   int
	mode  Mode
	err   error
}

// Tokenize returns a lexer over text. Tokens are produced on demand by Next.
func Tokenize(text string) *Lexer {
	return &Lexer{input: text, mode: ModeExpression}
}

// Next returns the next token. It returns io.EOF once the input is consumed
// and a *LexError when no rule of the current mode matches. Errors are sticky.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	if l.pos >= len(l.input) {
		return Token{}, io.EOF
	}

	rest := l.input[l.pos:]
	rules := lexRules[l.mode]
	best, bestLen := -1, 0
	for i := range rules {
		loc := rules[i].pattern.FindStringIndex(rest)
		// Strictly longer wins, so the earlier rule keeps ties.
		if loc != nil && loc[1] > bestLen {
			best, bestLen = i, loc[1]
		}
	}
	if best < 0 {
		l.err = &LexError{Offset: l.pos, Mode: l.mode, Text: excerpt(rest)}
		return Token{}, l.err
	}

	r := rules[best]
	tok := Token{Kind: r.kind, Text: rest[:bestLen], Offset: l.pos, Mode: l.mode}
	l.pos += bestLen
	if r.next != modeKeep {
		l.mode = r.next
	}
	return tok, nil
}

// Mode returns the lexical mode the next token will be matched in.
func (l *Lexer) Mode() Mode {
	return l.mode
}

// Offset returns the byte offset of the next unread character.
func (l *Lexer) Offset() int {
	return l.pos
}

// TokenizeAll runs the lexer to completion. On error the tokens produced so
// far are returned alongside the error.
func TokenizeAll(text string) ([]Token, error) {
	lex := Tokenize(text)
	var tokens []Token
	for {
		tok, err := lex.Next()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}

func excerpt(s string) string {
	const maxExcerpt = 16
	r := []rune(s)
	if len(r) > maxExcerpt {
		return string(r[:maxExcerpt])
	}
	return s
}
