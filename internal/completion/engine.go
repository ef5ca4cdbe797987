//revive:disable:exported
package completion

import (
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/internal/schema"
)

// Provider defines the interface for query completion sources.
type Provider interface {
	// DiscoverFields returns every field the provider can complete, generic
	// fields first.
	DiscoverFields() []FieldMetadata

	// FilterCompletions returns completions for the annotated input.
	// An empty field path in the annotation yields no completions.
	FilterCompletions(input string, context CompletionContext) []Completion
}

// FieldMetadata describes a completable field.
type FieldMetadata struct {
	Name        string            // Qualified name: "tag" or "file.name"
	Field       string            // Bare field name
	Type        schema.ObjectType // Object type declaring the field
	Description string
	Definition  schema.FieldDefinition
}

// Completion represents a single completion suggestion.
type Completion struct {
	Text        string         `json:"text" yaml:"text"`       // Replaces the partially typed segment
	Display     string         `json:"display" yaml:"display"` // Full dotted name with its suffix
	Kind        CompletionKind `json:"kind" yaml:"kind"`
	Detail      string         `json:"detail,omitempty" yaml:"detail,omitempty"` // Declaring object type
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`

	replace int
}

// Apply splices the completion into query, replacing the partially typed
// segment at its end.
func (c Completion) Apply(query string) string {
	n := min(c.replace, len(query))
	return query[:len(query)-n] + c.Text
}

// ReplaceLen is the number of trailing bytes Apply replaces.
func (c Completion) ReplaceLen() int {
	return c.replace
}

// CompletionKind indicates the type of completion.
type CompletionKind int

const (
	CompletionField    CompletionKind = iota // Plain field, completed with ":"
	CompletionSubfield                       // Subfield container, completed with "."
	CompletionSubquery                       // Subquery field, completed with ":("
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionField:
		return "field"
	case CompletionSubfield:
		return "subfield"
	case CompletionSubquery:
		return "subquery"
	}
	return "unknown"
}

// MarshalText renders the kind by name.
func (k CompletionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func kindOf(def schema.FieldDefinition) CompletionKind {
	switch {
	case def.OpensSubquery:
		return CompletionSubquery
	case def.SubfieldContainer:
		return CompletionSubfield
	default:
		return CompletionField
	}
}

// CompletionContext provides context for completion filtering.
type CompletionContext struct {
	// ObjectType is the type the query searches; object means any type.
	ObjectType schema.ObjectType

	// Annotation is the annotated input. Providers annotate the input
	// themselves when it is nil.
	Annotation *query.Annotation
}

// CompletionEngine wraps a Provider and annotates input before filtering.
type CompletionEngine struct {
	provider Provider
	logger   logr.Logger
}

//revive:enable:exported

// NewEngine creates a new completion engine with the given provider.
func NewEngine(provider Provider) *CompletionEngine {
	return &CompletionEngine{
		provider: provider,
		logger:   logr.Discard(),
	}
}

// WithLogger sets the logger used for diagnostics.
func (e *CompletionEngine) WithLogger(lgr logr.Logger) *CompletionEngine {
	e.logger = lgr
	return e
}

// GetCompletions annotates input and returns completions for its end.
// Lex and grammar errors are returned as-is with no completions.
func (e *CompletionEngine) GetCompletions(input string, objectType schema.ObjectType) ([]Completion, error) {
	ann, err := query.Annotate(input)
	if err != nil {
		e.logger.V(1).Info("query does not annotate", "query", input, "error", err.Error())
		return nil, err
	}
	out := e.provider.FilterCompletions(input, CompletionContext{ObjectType: objectType, Annotation: ann})
	e.logger.V(1).Info("completions", "query", input, "type", string(objectType),
		"path", ann.FieldPath, "count", len(out))
	return out, nil
}

// GetFields returns all completable fields.
func (e *CompletionEngine) GetFields() []FieldMetadata {
	return e.provider.DiscoverFields()
}
