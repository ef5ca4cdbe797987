package formatter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/oakwood-commons/mwq/internal/completion"
	"github.com/oakwood-commons/mwq/internal/history"
	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/internal/schema"
)

// Table is a set of rows under column headers.
type Table struct {
	Columns []string
	Rows    [][]string
	Hints   map[string]ColumnHint
}

// Render renders t as a columnar table. Hints from opts win over the table's own.
func (t Table) Render(opts ColumnarOptions) string {
	if len(t.Hints) > 0 {
		merged := make(map[string]ColumnHint, len(t.Hints)+len(opts.ColumnHints))
		for k, v := range t.Hints {
			merged[k] = v
		}
		for k, v := range opts.ColumnHints {
			merged[k] = v
		}
		opts.ColumnHints = merged
	}
	return RenderColumnarTable(t.Columns, t.Rows, opts)
}

// TokenTable lists tokens with their offsets and lexical modes.
func TokenTable(tokens []query.Token) Table {
	t := Table{
		Columns: []string{"OFFSET", "KIND", "MODE", "TEXT"},
		Hints:   map[string]ColumnHint{"OFFSET": {Align: "right"}},
	}
	for _, tok := range tokens {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(tok.Offset), tok.Kind.String(), tok.Mode.String(), strconv.Quote(tok.Text),
		})
	}
	return t
}

// StepTable lists validation steps with the state each token leads to.
func StepTable(steps []query.Step) Table {
	t := Table{
		Columns: []string{"OFFSET", "TOKEN", "KIND", "STATE", "NEXT"},
		Hints:   map[string]ColumnHint{"OFFSET": {Align: "right"}, "NEXT": {Priority: -1}},
	}
	for _, s := range steps {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(s.Token.Offset), strconv.Quote(s.Token.Text), s.Token.Kind.String(),
			string(s.State), KindList(s.Next),
		})
	}
	return t
}

// SuggestionTable lists suggestions in the order given.
func SuggestionTable(suggestions []completion.Completion) Table {
	t := Table{
		Columns: []string{"SUGGESTION", "KIND", "DESCRIPTION"},
		Hints:   map[string]ColumnHint{"SUGGESTION": {Priority: 2}, "DESCRIPTION": {Priority: -1}},
	}
	for _, s := range suggestions {
		t.Rows = append(t.Rows, []string{s.Display, s.Kind.String(), s.Description})
	}
	return t
}

// HistoryTable lists history entries with their age relative to now.
func HistoryTable(entries []history.Entry, now time.Time) Table {
	t := Table{
		Columns: []string{"ID", "WHEN", "TYPE", "QUERY"},
		Hints:   map[string]ColumnHint{"ID": {Align: "right"}, "QUERY": {Priority: 2}},
	}
	for _, e := range entries {
		objectType := e.ObjectType
		if objectType == "" {
			objectType = string(schema.ObjectTypeObject)
		}
		t.Rows = append(t.Rows, []string{strconv.FormatInt(e.ID, 10), e.Age(now), objectType, e.Query})
	}
	return t
}

// SchemaTable lists the fields of the given types, or of every type when none are given.
func SchemaTable(s *schema.Schema, types ...schema.ObjectType) Table {
	if len(types) == 0 {
		types = s.Types()
	}
	t := Table{
		Columns: []string{"TYPE", "FIELD", "KIND", "DESCRIPTION"},
		Hints:   map[string]ColumnHint{"DESCRIPTION": {Priority: -1}},
	}
	for _, typ := range types {
		for _, f := range s.Fields(typ) {
			kind := "field"
			switch {
			case f.OpensSubquery:
				kind = "subquery"
			case f.SubfieldContainer:
				kind = "subfield"
			}
			t.Rows = append(t.Rows, []string{string(typ), f.Name + f.Suffix(), kind, f.Description})
		}
	}
	return t
}

// ResultTable lays out search results. Object keys become columns in sorted
// order; results that are not objects go into a "value" column.
func ResultTable(results []any) Table {
	seen := map[string]bool{}
	var columns []string
	for _, r := range results {
		m, ok := r.(map[string]any)
		if !ok {
			if !seen["value"] {
				seen["value"] = true
				columns = append(columns, "value")
			}
			continue
		}
		for _, k := range getSortedKeys(m) {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	slices.Sort(columns)

	t := Table{Columns: columns}
	for _, r := range results {
		row := make([]string, len(columns))
		m, ok := r.(map[string]any)
		for i, c := range columns {
			switch {
			case ok:
				if v, present := m[c]; present {
					row[i] = Stringify(v)
				}
			case c == "value":
				row[i] = Stringify(r)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// AnnotationRows summarizes an annotation as KEY/VALUE rows.
func AnnotationRows(a *query.Annotation) [][]string {
	return [][]string{
		{"field_path", fmt.Sprintf("%q", a.FieldPath)},
		{"partial", a.Partial},
		{"state", string(a.State)},
		{"depth", strconv.Itoa(a.Depth)},
		{"inside_subquery", strconv.FormatBool(a.InsideSubquery)},
		{"next", KindList(a.Next)},
	}
}

// KindList joins token kind names with commas.
func KindList(kinds []query.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
