package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Format is an output format name.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatTable Format = "table"
	FormatList  Format = "list"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatTree  Format = "tree"
	FormatRaw   Format = "raw"
)

// Formats lists every accepted format in help order.
var Formats = []Format{FormatAuto, FormatTable, FormatList, FormatJSON, FormatYAML, FormatTOML, FormatTree, FormatRaw}

// ParseFormat validates a format name; "" means auto.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatAuto, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, known := range Formats {
		names[i] = string(known)
	}
	return "", fmt.Errorf("invalid output format %q: valid values are %s", name, strings.Join(names, ", "))
}

// Resolve picks the concrete format for auto: table on a terminal, JSON otherwise.
func (f Format) Resolve(terminal bool) Format {
	if f != FormatAuto && f != "" {
		return f
	}
	if terminal {
		return FormatTable
	}
	return FormatJSON
}

// IsStructured reports whether f is a document encoding.
func (f Format) IsStructured() bool {
	return f == FormatJSON || f == FormatYAML || f == FormatTOML
}

// Marshal encodes v as JSON, YAML or TOML. TOML documents must be tables, so
// lists and scalars are wrapped under rootKey.
func Marshal(v any, format Format, rootKey string) (string, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return "", err
		}
		return buf.String(), nil
	case FormatYAML:
		return RenderYAML(v, YAMLFormatOptions{Indent: 2, LiteralBlockStrings: true})
	case FormatTOML:
		if !isTable(v) {
			if rootKey == "" {
				rootKey = "items"
			}
			v = map[string]any{rootKey: v}
		}
		b, err := toml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("format %q is not a document encoding", format)
	}
}

func isTable(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
}
