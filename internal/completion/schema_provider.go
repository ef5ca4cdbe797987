package completion

import (
	"strings"

	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/internal/schema"
)

// SchemaProvider completes field names from a schema.
type SchemaProvider struct {
	registry *FieldRegistry
}

// NewSchemaProvider creates a provider over s.
func NewSchemaProvider(s *schema.Schema) *SchemaProvider {
	return &SchemaProvider{registry: NewFieldRegistry(s)}
}

// Registry exposes the provider's field index.
func (p *SchemaProvider) Registry() *FieldRegistry {
	return p.registry
}

// DiscoverFields implements Provider.
func (p *SchemaProvider) DiscoverFields() []FieldMetadata {
	return p.registry.GetAll()
}

// FilterCompletions implements Provider.
//
// With the generic object type, or inside a subquery, a one-segment path is
// matched against generic fields and every "<type>.<field>" name; a two-segment
// path whose first segment names a type is matched against that type's fields.
// With a declared type only one-segment paths complete, against the generic
// fields and the declared type's fields. Deeper paths are free-form.
func (p *SchemaProvider) FilterCompletions(input string, ctx CompletionContext) []Completion {
	ann := ctx.Annotation
	if ann == nil {
		var err error
		if ann, err = query.Annotate(input); err != nil {
			return nil
		}
	}
	path := ann.FieldPath
	if len(path) == 0 {
		return nil
	}
	last := path[len(path)-1]

	var (
		candidates []FieldMetadata
		qualified  bool // match and insert the qualified name
		prefixed   bool // a type prefix was consumed from the path
	)
	generic := ctx.ObjectType == "" || ctx.ObjectType == schema.ObjectTypeObject || ann.InsideSubquery
	switch {
	case generic && len(path) == 1:
		candidates, qualified = p.registry.GetAll(), true
	case generic && len(path) == 2 && p.registry.IsTypedPrefix(path[0]):
		candidates, prefixed = p.registry.GetByType(schema.ObjectType(path[0])), true
	case !generic && len(path) == 1:
		candidates = append(p.registry.GetByType(schema.ObjectTypeObject), p.registry.GetByType(ctx.ObjectType)...)
	default:
		return nil
	}

	var out []Completion
	for _, c := range candidates {
		name := c.Field
		if qualified {
			name = c.Name
		}
		if !strings.HasPrefix(name, last) {
			continue
		}
		display := name
		if prefixed {
			display = c.Name
		}
		suffix := c.Definition.Suffix()
		out = append(out, Completion{
			Text:        name + suffix,
			Display:     display + suffix,
			Kind:        kindOf(c.Definition),
			Detail:      string(c.Type),
			Description: c.Description,
			replace:     len(ann.Partial),
		})
	}
	return out
}
