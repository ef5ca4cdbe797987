package completion

import (
	"strings"

	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/internal/schema"
)

// FieldRegistry is the single source of truth for completable fields.
// Fields keep schema declaration order: generic fields first, then each
// typed object's fields under its "<type>." prefix.
type FieldRegistry struct {
	schema *schema.Schema
	fields []FieldMetadata
	byType map[schema.ObjectType][]FieldMetadata
	byName map[string]int
}

// NewFieldRegistry indexes the fields of s.
func NewFieldRegistry(s *schema.Schema) *FieldRegistry {
	r := &FieldRegistry{
		schema: s,
		byType: make(map[schema.ObjectType][]FieldMetadata),
		byName: make(map[string]int),
	}
	for _, t := range s.Types() {
		for _, def := range s.Fields(t) {
			name := def.Name
			if t != schema.ObjectTypeObject {
				name = query.JoinFieldPath([]string{string(t), def.Name})
			}
			meta := FieldMetadata{
				Name:        name,
				Field:       def.Name,
				Type:        t,
				Description: def.Description,
				Definition:  def,
			}
			r.byName[name] = len(r.fields)
			r.fields = append(r.fields, meta)
			r.byType[t] = append(r.byType[t], meta)
		}
	}
	return r
}

// Schema returns the indexed schema.
func (r *FieldRegistry) Schema() *schema.Schema {
	return r.schema
}

// GetField returns metadata for a qualified field name, or nil if not found.
func (r *FieldRegistry) GetField(name string) *FieldMetadata {
	if i, ok := r.byName[name]; ok {
		fn := r.fields[i]
		return &fn
	}
	return nil
}

// GetAll returns every field in declaration order.
func (r *FieldRegistry) GetAll() []FieldMetadata {
	return append([]FieldMetadata(nil), r.fields...)
}

// GetByType returns the fields declared by one object type.
func (r *FieldRegistry) GetByType(t schema.ObjectType) []FieldMetadata {
	return append([]FieldMetadata(nil), r.byType[t]...)
}

// IsTypedPrefix reports whether segment names a typed object (file, config, ...).
func (r *FieldRegistry) IsTypedPrefix(segment string) bool {
	t := schema.ObjectType(segment)
	return t != schema.ObjectTypeObject && r.schema.Has(t)
}

// Search returns fields whose qualified name or description contains term
// (case-insensitive).
func (r *FieldRegistry) Search(term string) []FieldMetadata {
	if term == "" {
		return r.GetAll()
	}
	term = strings.ToLower(term)
	var result []FieldMetadata
	for _, fn := range r.fields {
		if strings.Contains(strings.ToLower(fn.Name), term) ||
			strings.Contains(strings.ToLower(fn.Description), term) {
			result = append(result, fn)
		}
	}
	return result
}

// Size returns the total number of fields in the registry.
func (r *FieldRegistry) Size() int {
	return len(r.fields)
}
