package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	_, err = ParseFormat("xml")
	require.ErrorContains(t, err, "valid values are auto, table, list")
}

func TestResolve(t *testing.T) {
	assert.Equal(t, FormatTable, FormatAuto.Resolve(true))
	assert.Equal(t, FormatJSON, FormatAuto.Resolve(false))
	assert.Equal(t, FormatTree, FormatTree.Resolve(false))
	assert.True(t, FormatTOML.IsStructured())
	assert.False(t, FormatTable.IsStructured())
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(map[string]any{"q": "a<b"}, FormatJSON, "")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"q\": \"a<b\"\n}\n", out)

	out, err = Marshal([]any{"x"}, FormatYAML, "")
	require.NoError(t, err)
	assert.Equal(t, "- x\n", out)

	out, err = Marshal([]any{map[string]any{"id": "a"}}, FormatTOML, "results")
	require.NoError(t, err)
	assert.Contains(t, out, "[[results]]")
	assert.Contains(t, out, "id = 'a'")

	out, err = Marshal(map[string]any{"n": 1}, FormatTOML, "")
	require.NoError(t, err)
	assert.Equal(t, "n = 1\n", out)

	_, err = Marshal(1, FormatTable, "")
	require.Error(t, err)
}

func TestRenderYAMLLiteralBlock(t *testing.T) {
	out, err := RenderYAML(map[string]any{"comment": "line1\nline2"}, YAMLFormatOptions{LiteralBlockStrings: true})
	require.NoError(t, err)
	assert.Equal(t, "comment: |-\n  line1\n  line2\n", out)
}
