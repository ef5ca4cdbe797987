package docs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/mwq/internal/schema"
)

func TestMarkdownListsEveryType(t *testing.T) {
	md := Markdown(schema.Default())
	for _, heading := range []string{"## object", "## file", "## config", "## blob", "## Query syntax"} {
		assert.Contains(t, md, heading)
	}
	assert.Contains(t, md, "| `parent:(` | subquery |")
	assert.Contains(t, md, "| `attribute.` | subfields |")
	assert.Less(t, strings.Index(md, "## object"), strings.Index(md, "## file"))
}

func TestMarkdownSingleType(t *testing.T) {
	md := Markdown(schema.Default(), schema.ObjectTypeBlob)
	assert.Contains(t, md, "## blob")
	assert.NotContains(t, md, "## file")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	s, err := schema.New(map[schema.ObjectType][]schema.FieldDefinition{
		schema.ObjectTypeObject: {{Name: "x", Description: "a | b\nc"}},
	})
	require.NoError(t, err)
	assert.Contains(t, Markdown(s), `| a \| b c |`)
}

func TestHTML(t *testing.T) {
	out, err := HTML(schema.Default(), schema.ObjectTypeFile)
	require.NoError(t, err)
	page := string(out)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, `<h2 id="file">file</h2>`)
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<code>sha256:</code>")
}
