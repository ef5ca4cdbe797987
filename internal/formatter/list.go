package formatter

import (
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

// ListOptions controls list output formatting.
type ListOptions struct {
	NoColor    bool   // disable color output
	ArrayStyle string // array index style: index, numbered, bullet, none
}

// FormatAsList renders data vertically. Each object in a list gets an index
// header followed by its indented properties; scalars print one per line.
func FormatAsList(node any, opts ListOptions) string {
	var b strings.Builder

	switch v := node.(type) {
	case []any:
		for i, elem := range v {
			m, ok := elem.(map[string]any)
			if !ok {
				b.WriteString(StringifyPreserveNewlines(elem) + "\n")
				continue
			}
			if i > 0 {
				b.WriteString("\n")
			}
			if header := FormatArrayIndex(i, opts.ArrayStyle); header != "" {
				if !opts.NoColor {
					header = headerStyle.Render(header)
				}
				b.WriteString(header + "\n")
			}
			b.WriteString(formatMapAsList(m, "  ", opts.NoColor))
		}
	case map[string]any:
		b.WriteString(formatMapAsList(v, "", opts.NoColor))
	default:
		label, value := "value", StringifyPreserveNewlines(v)
		if !opts.NoColor {
			label = keyStyle.Render(label)
			value = valueStyle.Render(value)
		}
		b.WriteString(label + ": " + value + "\n")
	}
	return b.String()
}

func formatMapAsList(m map[string]any, indent string, noColor bool) string {
	var b strings.Builder
	for _, key := range getSortedKeys(m) {
		keyStr := indent + key
		valStr := StringifyPreserveNewlines(m[key])
		if !noColor {
			keyStr = keyStyle.Render(keyStr)
			valStr = valueStyle.Render(valStr)
		}
		b.WriteString(keyStr + ": " + valStr + "\n")
	}
	return b.String()
}

func getSortedKeys(m map[string]any) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
