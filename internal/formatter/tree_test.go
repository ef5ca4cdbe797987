package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/mwq/internal/query"
)

func TestFormatAsTree(t *testing.T) {
	data := map[string]any{
		"file_name": "a.exe",
		"tags":      []any{"x", "y"},
		"parents":   []any{map[string]any{"id": "p"}},
		"empty":     map[string]any{},
	}
	out := FormatAsTree(data, TreeOptions{})
	assert.Contains(t, out, "file_name: a.exe")
	assert.Contains(t, out, "tags: [x, y]")
	assert.Contains(t, out, "empty: {}")
	assert.Contains(t, out, "[0]")
	assert.Contains(t, out, "id: p")
}

func TestFormatAsTreeOptions(t *testing.T) {
	data := map[string]any{"tags": []any{1.0, 2.0, 3.0, 4.0}, "nested": map[string]any{"deep": map[string]any{"x": 1}}}

	assert.Contains(t, FormatAsTree(data, TreeOptions{}), "tags: [4 items]")
	assert.Contains(t, FormatAsTree(data, TreeOptions{MaxDepth: 1}), "deep: ...")
	assert.NotContains(t, FormatAsTree(data, TreeOptions{NoValues: true}), "[4 items]")
	assert.Contains(t, FormatAsTree(map[string]any{"s": "abcdefgh"}, TreeOptions{MaxStringLen: 6}), "s: abc...")
}

func TestValidateArrayStyle(t *testing.T) {
	assert.NoError(t, ValidateArrayStyle(""))
	assert.NoError(t, ValidateArrayStyle("bullet"))
	assert.Error(t, ValidateArrayStyle("roman"))
}

func TestFormatArrayIndex(t *testing.T) {
	assert.Equal(t, "[2]", FormatArrayIndex(2, ""))
	assert.Equal(t, "3", FormatArrayIndex(2, "numbered"))
	assert.Equal(t, "•", FormatArrayIndex(2, "bullet"))
	assert.Equal(t, "", FormatArrayIndex(2, "none"))
}

func TestAnnotationTree(t *testing.T) {
	text := `tag:x AND (size:[1 TO 2] OR parent:(file.name:a.exe)) AND NOT `
	ann, err := query.Annotate(text)
	require.NoError(t, err)

	out := AnnotationTree(text, ann)
	assert.True(t, strings.HasPrefix(out, text), out)
	for _, want := range []string{"tag:x", "( group", "size:[1 TO 2]", "parent:( subquery", "file.name:a.exe", "NOT", "▸ next:"} {
		assert.Contains(t, out, want)
	}
}

func TestAnnotationTreeOpenSubquery(t *testing.T) {
	text := "parent:(tag:"
	ann, err := query.Annotate(text)
	require.NoError(t, err)
	out := AnnotationTree(text, ann)

	subquery := strings.Index(out, "parent:( subquery")
	clause := strings.Index(out, "tag:")
	require.GreaterOrEqual(t, subquery, 0)
	assert.Greater(t, clause, subquery)
	assert.Contains(t, out, "▸ next: whitespace, comparison operator")
}

func TestAnnotationTreeEmpty(t *testing.T) {
	ann, err := query.Annotate("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(AnnotationTree("", ann), "(empty query)"))
}
