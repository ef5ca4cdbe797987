// Package schema describes the searchable fields of each object type.
package schema

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/pkg/loader"
)

// ObjectType names a kind of repository object.
type ObjectType string

const (
	ObjectTypeObject ObjectType = "object" // Generic type; its fields apply to every type
	ObjectTypeFile   ObjectType = "file"
	ObjectTypeConfig ObjectType = "config"
	ObjectTypeBlob   ObjectType = "blob"
)

// TypedObjectTypes lists the concrete object types in enumeration order.
var TypedObjectTypes = []ObjectType{ObjectTypeFile, ObjectTypeConfig, ObjectTypeBlob}

// FieldDefinition is a single searchable field.
type FieldDefinition struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	// SubfieldContainer fields take a free-form key after a dot (attribute.<key>).
	SubfieldContainer bool `json:"subfields,omitempty" yaml:"subfields,omitempty" toml:"subfields,omitempty"`
	// OpensSubquery fields take a parenthesized query as their value (parent:(...)).
	OpensSubquery bool `json:"subquery,omitempty" yaml:"subquery,omitempty" toml:"subquery,omitempty"`
}

// Suffix returns the text that follows the field name when it is completed.
func (f FieldDefinition) Suffix() string {
	switch {
	case f.OpensSubquery:
		return ":("
	case f.SubfieldContainer:
		return "."
	default:
		return ":"
	}
}

// Document is the on-disk form of a schema.
type Document struct {
	Version int                              `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Types   map[ObjectType][]FieldDefinition `json:"types" yaml:"types" toml:"types"`
}

// Schema is an immutable set of field definitions grouped by object type.
// Field order within a type is declaration order.
type Schema struct {
	types map[ObjectType][]FieldDefinition
	order []ObjectType
}

//go:embed default_schema.yaml
var defaultSchemaYAML string

// New builds a schema. The generic object type always exists, even if empty.
func New(types map[ObjectType][]FieldDefinition) (*Schema, error) {
	s := &Schema{types: make(map[ObjectType][]FieldDefinition, len(types)+1)}
	for t, fields := range types {
		if err := validateType(t, fields); err != nil {
			return nil, err
		}
		s.types[t] = slices.Clone(fields)
	}
	if _, ok := s.types[ObjectTypeObject]; !ok {
		s.types[ObjectTypeObject] = nil
	}

	// Known types in enumeration order, then any custom types sorted by name.
	s.order = []ObjectType{ObjectTypeObject}
	for _, t := range TypedObjectTypes {
		if _, ok := s.types[t]; ok {
			s.order = append(s.order, t)
		}
	}
	custom := maps.Keys(s.types)
	slices.Sort(custom)
	for _, t := range custom {
		if !slices.Contains(s.order, t) {
			s.order = append(s.order, t)
		}
	}
	return s, nil
}

func validateType(t ObjectType, fields []FieldDefinition) error {
	name := string(t)
	if name == "" || strings.ContainsAny(name, ". \t\n:") {
		return fmt.Errorf("invalid object type name %q", name)
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("type %s: field %d has no name", t, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("type %s: duplicate field %q", t, f.Name)
		}
		if f.SubfieldContainer && f.OpensSubquery {
			return fmt.Errorf("type %s: field %q cannot both take subfields and open a subquery", t, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// FromDocument builds a schema from a decoded document.
func FromDocument(doc Document) (*Schema, error) {
	if len(doc.Types) == 0 {
		return nil, fmt.Errorf("schema document declares no types")
	}
	return New(doc.Types)
}

// Parse decodes a YAML, JSON or TOML schema document.
func Parse(input string) (*Schema, error) {
	var doc Document
	if err := loader.Decode(input, &doc); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return FromDocument(doc)
}

// LoadFile reads a schema document from path.
func LoadFile(path string) (*Schema, error) {
	var doc Document
	if err := loader.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	return FromDocument(doc)
}

// Default returns the built-in schema of the sample repository.
func Default() *Schema {
	s, err := Parse(defaultSchemaYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded schema is invalid: %v", err))
	}
	return s
}

// Types returns every object type: object first, then the typed ones.
func (s *Schema) Types() []ObjectType {
	return slices.Clone(s.order)
}

// TypedTypes returns every object type except the generic one.
func (s *Schema) TypedTypes() []ObjectType {
	return slices.Clone(s.order[1:])
}

// Has reports whether t is declared.
func (s *Schema) Has(t ObjectType) bool {
	_, ok := s.types[t]
	return ok
}

// Fields returns the fields of t in declaration order.
func (s *Schema) Fields(t ObjectType) []FieldDefinition {
	return slices.Clone(s.types[t])
}

// Lookup finds a field by dotted name: "tag" looks in the generic type and in
// typeHint, "file.name" consumes the type prefix.
func (s *Schema) Lookup(name string, typeHint ObjectType) (ObjectType, FieldDefinition, bool) {
	path := query.SplitFieldPath(name)
	if len(path) == 2 && s.Has(ObjectType(path[0])) && path[0] != string(ObjectTypeObject) {
		typeHint, path = ObjectType(path[0]), path[1:]
	}
	if len(path) != 1 {
		return "", FieldDefinition{}, false
	}
	for _, t := range []ObjectType{ObjectTypeObject, typeHint} {
		for _, f := range s.types[t] {
			if f.Name == path[0] {
				return t, f, true
			}
		}
	}
	return "", FieldDefinition{}, false
}

// Document returns the schema in its on-disk form.
func (s *Schema) Document() Document {
	doc := Document{Version: 1, Types: make(map[ObjectType][]FieldDefinition, len(s.types))}
	for t, fields := range s.types {
		doc.Types[t] = slices.Clone(fields)
	}
	return doc
}

// ParseObjectType validates a user supplied object type against the schema.
func (s *Schema) ParseObjectType(name string) (ObjectType, error) {
	t := ObjectType(strings.ToLower(strings.TrimSpace(name)))
	if t == "" {
		return ObjectTypeObject, nil
	}
	if !s.Has(t) {
		names := make([]string, len(s.order))
		for i, o := range s.order {
			names[i] = string(o)
		}
		return "", fmt.Errorf("unknown object type %q (expected one of %s)", name, strings.Join(names, ", "))
	}
	return t, nil
}
