// Package docs renders the field schema as a Markdown or HTML reference page.
package docs

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/oakwood-commons/mwq/internal/schema"
)

const syntaxGuide = "## Query syntax\n\n" +
	"| Form | Example |\n" +
	"|---|---|\n" +
	"| Field match | `tag:emotet` |\n" +
	"| Quoted value | `comment:\"dropped by loader\"` |\n" +
	"| Nested field | `file.name:*.exe` |\n" +
	"| Subfield | `attribute.url:\"http://example.com\"` |\n" +
	"| Comparison | `file.size:>=1024` |\n" +
	"| Range | `upload_time:[2020-01-01 TO 2020-02-01]` |\n" +
	"| Subquery | `parent:(tag:dropper)` |\n" +
	"| Array element | `karton*:analyzed` |\n" +
	"| Boolean logic | `tag:a AND (tag:b OR NOT tag:c)` |\n\n" +
	"Dots and colons inside field names are escaped with a backslash.\n"

// Markdown renders the reference for the given types, or every type when none are given.
func Markdown(s *schema.Schema, types ...schema.ObjectType) string {
	if len(types) == 0 {
		types = s.Types()
	}
	var b strings.Builder
	b.WriteString("# Search fields\n\n")
	b.WriteString("Fields of the `object` type apply to every object. Typed fields can be\n")
	b.WriteString("prefixed with their type (`file.name:`) when searching all objects.\n\n")
	for _, typ := range types {
		fmt.Fprintf(&b, "## %s\n\n", typ)
		b.WriteString("| Field | Kind | Description |\n|---|---|---|\n")
		for _, f := range s.Fields(typ) {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", f.Name+f.Suffix(), fieldKind(f), escapeCell(f.Description))
		}
		b.WriteString("\n")
	}
	b.WriteString(syntaxGuide)
	return b.String()
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: .4rem .6rem; text-align: left; }
code { background: #f4f4f4; padding: 0 .2rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders Markdown output as a standalone HTML page.
func HTML(s *schema.Schema, types ...schema.ObjectType) ([]byte, error) {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(Markdown(s, types...)))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	body := markdown.Render(doc, renderer)

	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: "Search fields", Body: template.HTML(body)}) //nolint:gosec // rendered from escaped markdown
	if err != nil {
		return nil, fmt.Errorf("render schema page: %w", err)
	}
	return buf.Bytes(), nil
}

func fieldKind(f schema.FieldDefinition) string {
	switch {
	case f.OpensSubquery:
		return "subquery"
	case f.SubfieldContainer:
		return "subfields"
	default:
		return "field"
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
