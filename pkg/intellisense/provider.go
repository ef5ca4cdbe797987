// Package intellisense exposes query tokenizing, validation, annotation and
// field suggestions to CLI and TUI applications.
//
// # Basic Usage
//
// Create an engine over the built-in schema and ask for suggestions while the
// user types:
//
//	engine := intellisense.New()
//	suggestions, err := engine.Suggest("file.na", intellisense.ObjectTypeObject)
//	if err != nil {
//		// err is a *LexError or *GrammarError with the offending offset
//	}
//	for _, s := range suggestions {
//		fmt.Printf("%s - %s\n", s.Display, s.Description)
//	}
//	query := suggestions[0].Apply("file.na") // "file.name:"
//
// Use WithSchema to complete against another set of fields.
//
// # Interactive Mode Example
//
// See repl.go for a line-oriented REPL built on the engine.
package intellisense

import (
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/mwq/internal/completion"
	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/internal/schema"
)

// Provider produces suggestions for annotated queries.
type Provider = completion.Provider

// Suggestion is a single completion; Apply splices it into the query.
type Suggestion = completion.Completion

// SuggestionKind tells fields, subfield containers and subquery fields apart.
type SuggestionKind = completion.CompletionKind

// Suggestion kinds
const (
	SuggestionField    = completion.CompletionField
	SuggestionSubfield = completion.CompletionSubfield
	SuggestionSubquery = completion.CompletionSubquery
)

// SuggestionContext is passed to providers.
type SuggestionContext = completion.CompletionContext

// FieldMetadata describes a completable field.
type FieldMetadata = completion.FieldMetadata

// Query language types.
type (
	Token        = query.Token
	Kind         = query.Kind
	State        = query.State
	Step         = query.Step
	Annotation   = query.Annotation
	LexError     = query.LexError
	GrammarError = query.GrammarError
)

// Schema types.
type (
	ObjectType      = schema.ObjectType
	FieldDefinition = schema.FieldDefinition
	Schema          = schema.Schema
)

// Object types of the built-in schema.
const (
	ObjectTypeObject = schema.ObjectTypeObject
	ObjectTypeFile   = schema.ObjectTypeFile
	ObjectTypeConfig = schema.ObjectTypeConfig
	ObjectTypeBlob   = schema.ObjectTypeBlob
)

// Tokenize splits text into tokens.
func Tokenize(text string) ([]Token, error) {
	return query.TokenizeAll(text)
}

// Validate runs text through the grammar and reports the state after each token.
// Incomplete queries are accepted; use ValidateComplete to require a finished one.
func Validate(text string) ([]Step, error) {
	return query.Validate(text)
}

// ValidateComplete is Validate that also rejects queries ending mid-clause.
func ValidateComplete(text string) ([]Step, error) {
	return query.ValidateComplete(text)
}

// Annotate describes the end of text: field path, subquery nesting and legal next tokens.
func Annotate(text string) (*Annotation, error) {
	return query.Annotate(text)
}

// ErrorOffset returns the query offset a lex or grammar error points at.
func ErrorOffset(err error) (int, bool) {
	return query.ErrorOffset(err)
}

// DefaultSchema returns the built-in field schema.
func DefaultSchema() *Schema {
	return schema.Default()
}

// NewSchema builds a schema from field definitions grouped by object type.
func NewSchema(types map[ObjectType][]FieldDefinition) (*Schema, error) {
	return schema.New(types)
}

// LoadSchemaFile reads a YAML, JSON or TOML schema document.
func LoadSchemaFile(path string) (*Schema, error) {
	return schema.LoadFile(path)
}

// Engine produces suggestions over an injected schema.
type Engine struct {
	schema   *schema.Schema
	provider Provider
	logger   logr.Logger
	engine   *completion.CompletionEngine
}

// Option configures the Engine.
type Option func(*Engine)

// WithSchema completes against s instead of the built-in schema.
func WithSchema(s *Schema) Option {
	return func(e *Engine) {
		e.schema = s
	}
}

// WithProvider replaces the schema-backed provider.
func WithProvider(p Provider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(lgr logr.Logger) Option {
	return func(e *Engine) {
		e.logger = lgr
	}
}

// New creates an Engine with defaults.
func New(opts ...Option) *Engine {
	e := &Engine{logger: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	if e.schema == nil {
		e.schema = schema.Default()
	}
	if e.provider == nil {
		e.provider = completion.NewSchemaProvider(e.schema)
	}
	e.engine = completion.NewEngine(e.provider).WithLogger(e.logger)
	return e
}

// Schema returns the schema the engine completes against.
func (e *Engine) Schema() *Schema {
	return e.schema
}

// Suggest returns suggestions for the end of text, searching objectType.
func (e *Engine) Suggest(text string, objectType ObjectType) ([]Suggestion, error) {
	return e.engine.GetCompletions(text, objectType)
}

// Fields returns every field the engine can suggest.
func (e *Engine) Fields() []FieldMetadata {
	return e.engine.GetFields()
}

var defaultEngine = New()

// GetSuggestions returns suggestions from the built-in schema.
func GetSuggestions(text string, objectType ObjectType) ([]Suggestion, error) {
	return defaultEngine.Suggest(text, objectType)
}
