package query

import (
	"errors"
	"io"
)

// TokenFact records what the annotator knew right after a token.
type TokenFact struct {
	Token          Token    `json:"token" yaml:"token"`
	State          State    `json:"state" yaml:"state"`
	FieldPath      []string `json:"field_path,omitempty" yaml:"field_path,omitempty"`
	InsideSubquery bool     `json:"inside_subquery,omitempty" yaml:"inside_subquery,omitempty"`
	Depth          int      `json:"depth,omitempty" yaml:"depth,omitempty"`
}

// Annotation describes the end of a (possibly partial) query: the field path
// being typed, whether the cursor sits inside a subquery and which token kinds
// may come next.
type Annotation struct {
	Tokens         []TokenFact `json:"tokens" yaml:"tokens"`
	FieldPath      []string    `json:"field_path" yaml:"field_path"`
	InsideSubquery bool        `json:"inside_subquery" yaml:"inside_subquery"`
	State          State       `json:"state" yaml:"state"`
	Depth          int         `json:"depth" yaml:"depth"`
	Next           []Kind      `json:"next" yaml:"next"`

	// Partial is the raw text of the trailing field path segment, empty when
	// the cursor sits right after a separator or operator.
	Partial string `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// LastSegment returns the field name typed so far, or "" for an empty path.
func (a *Annotation) LastSegment() string {
	if a == nil || len(a.FieldPath) == 0 {
		return ""
	}
	return a.FieldPath[len(a.FieldPath)-1]
}

// Expects reports whether kind may legally follow the annotated text.
func (a *Annotation) Expects(kind Kind) bool {
	for _, k := range a.Next {
		if k == kind {
			return true
		}
	}
	return false
}

// Annotate tokenizes and validates text from scratch and tracks the field
// path and bracket nesting along the way. On a lex or grammar error the
// annotation covers the tokens accepted before the failure.
func Annotate(text string) (*Annotation, error) {
	var (
		lex      = Tokenize(text)
		v        = NewValidator()
		ann      = &Annotation{State: StateMain}
		path     []string
		partial  string
		brackets []bool // true for subquery parentheses
	)
	for {
		tok, err := lex.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			ann.finish(v, path, partial, brackets)
			return ann, err
		}
		step, err := v.Feed(tok)
		if err != nil {
			ann.finish(v, path, partial, brackets)
			return ann, err
		}

		switch {
		case (tok.Kind == KindTerm || tok.Kind == KindPhrase) && step.State == StateFieldname:
			path = append(path, segmentText(tok))
			partial = tok.Text
		case tok.Kind == KindFieldSep || tok.Kind == KindArrayWildcard:
			partial = ""
		default:
			path, partial = nil, ""
		}

		switch tok.Kind {
		case KindLParen:
			brackets = append(brackets, false)
		case KindSubqueryOpen:
			brackets = append(brackets, true)
		case KindRParen:
			brackets = brackets[:len(brackets)-1]
		default:
		}

		ann.Tokens = append(ann.Tokens, TokenFact{
			Token:          tok,
			State:          step.State,
			FieldPath:      append([]string(nil), path...),
			InsideSubquery: insideSubquery(brackets),
			Depth:          step.Depth,
		})
	}
	ann.finish(v, path, partial, brackets)
	return ann, nil
}

func (a *Annotation) finish(v *Validator, path []string, partial string, brackets []bool) {
	a.State = v.State()
	a.Depth = v.Depth()
	a.Next = v.Expected()
	a.InsideSubquery = insideSubquery(brackets)
	a.FieldPath = append([]string{}, path...)
	a.Partial = partial
	// A field name may start here: signal it with an empty segment.
	if a.Expects(KindTerm) {
		a.FieldPath = append(a.FieldPath, "")
		a.Partial = ""
	}
}

func insideSubquery(brackets []bool) bool {
	for _, sub := range brackets {
		if sub {
			return true
		}
	}
	return false
}
