package query

import "strings"

// SplitFieldPath splits a dotted field path on unescaped dots and unescapes
// "\." and "\\" within each segment. A lone "." refers to the current value
// itself and yields an empty path.
func SplitFieldPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}
	var (
		segments []string
		current  strings.Builder
	)
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case c == '\\' && i+1 < len(path) && (path[i+1] == '.' || path[i+1] == '\\'):
			current.WriteByte(path[i+1])
			i++
		case c == '.':
			segments = append(segments, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(segments, current.String())
}

// JoinFieldPath is the inverse of SplitFieldPath.
func JoinFieldPath(segments []string) string {
	if len(segments) == 0 {
		return "."
	}
	escaped := make([]string, len(segments))
	for i, s := range segments {
		s = strings.ReplaceAll(s, `\`, `\\`)
		escaped[i] = strings.ReplaceAll(s, ".", `\.`)
	}
	return strings.Join(escaped, ".")
}

// segmentText returns the field name a field-like token stands for: bare
// terms lose their backslash escapes, phrases lose their quotes as well.
func segmentText(tok Token) string {
	text := tok.Text
	if tok.Kind == KindPhrase || tok.Kind == KindValuePhrase || tok.Kind == KindRangePhrase {
		text = strings.TrimSuffix(strings.TrimPrefix(text, `"`), `"`)
	}
	return unescape(text)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
