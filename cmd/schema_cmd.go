package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/mwq/internal/docs"
	"github.com/oakwood-commons/mwq/internal/formatter"
	"github.com/oakwood-commons/mwq/internal/schema"
)

var schemaFormat string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List searchable fields",
	Long: `Schema lists the searchable fields of every object type, or of --type only.
--format markdown or html renders a field reference with the query syntax guide.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		s := engine.Schema()

		var types []schema.ObjectType
		if cmd.Flags().Changed("type") {
			t, err := s.ParseObjectType(objectType)
			if err != nil {
				return err
			}
			types = []schema.ObjectType{t}
		}

		w := cmd.OutOrStdout()
		switch schemaFormat {
		case "markdown", "md":
			_, err := fmt.Fprint(w, docs.Markdown(s, types...))
			return err
		case "html":
			page, err := docs.HTML(s, types...)
			if err != nil {
				return err
			}
			_, err = w.Write(page)
			return err
		case "table":
			return renderSchema(cmd, s, types, formatter.FormatTable)
		case "":
		case "yaml", "json", "toml":
			return renderSchema(cmd, s, types, formatter.Format(schemaFormat))
		default:
			return fmt.Errorf("invalid schema format %q: valid values are table, markdown, html, yaml, json, toml", schemaFormat)
		}
		format, err := outputFormat(w)
		if err != nil {
			return err
		}
		return renderSchema(cmd, s, types, format)
	},
}

func renderSchema(cmd *cobra.Command, s *schema.Schema, types []schema.ObjectType, format formatter.Format) error {
	doc := s.Document()
	if len(types) > 0 {
		doc.Types = map[schema.ObjectType][]schema.FieldDefinition{types[0]: s.Fields(types[0])}
	}
	if format.IsStructured() {
		out, err := formatter.Marshal(doc, format, "schema")
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	table := func(opts formatter.ColumnarOptions) string {
		return formatter.SchemaTable(s, types...).Render(opts)
	}
	if format == formatter.FormatTable {
		w := cmd.OutOrStdout()
		return writeOut(w, table(formatter.ColumnarOptions{NoColor: noColor, TotalWidth: tableWidth(w)}))
	}
	return render(cmd, result{doc: doc, table: table})
}

func init() { //nolint:gochecknoinits
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "", "table, markdown, html, yaml, json or toml (default follows -o)")
}
