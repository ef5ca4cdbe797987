package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/mwq/internal/completion"
	"github.com/oakwood-commons/mwq/internal/history"
	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/internal/schema"
)

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestRenderColumnarTable(t *testing.T) {
	out := RenderColumnarTable([]string{"NAME", "SIZE"}, [][]string{{"a.exe", "10"}, {"b.dll", "2048"}},
		ColumnarOptions{NoColor: true, TotalWidth: 80, ColumnHints: map[string]ColumnHint{"SIZE": {Align: "right"}}})
	got := lines(out)
	require.Len(t, got, 4)
	assert.Equal(t, "#    NAME   SIZE", got[0])
	assert.Equal(t, "1    a.exe    10", got[2])
	assert.Equal(t, "2    b.dll  2048", got[3])
}

func TestRenderColumnarTableNoRowNumbers(t *testing.T) {
	out := RenderColumnarTable([]string{"A"}, [][]string{{"x"}}, ColumnarOptions{NoColor: true, TotalWidth: 80, RowNumberStyle: "none"})
	assert.Equal(t, []string{"A", "─", "x"}, lines(out))
}

func TestRenderColumnarTableIndexStyle(t *testing.T) {
	out := RenderColumnarTable([]string{"A"}, [][]string{{"x"}}, ColumnarOptions{NoColor: true, TotalWidth: 80, RowNumberStyle: "index"})
	assert.Equal(t, "[0]  x", lines(out)[2])
}

func TestRenderColumnarTableShrinks(t *testing.T) {
	long := strings.Repeat("y", 200)
	out := RenderColumnarTable([]string{"A", "B"}, [][]string{{"short", long}}, ColumnarOptions{NoColor: true, TotalWidth: 60})
	for _, line := range lines(out) {
		assert.LessOrEqual(t, len([]rune(line)), 60)
	}
	assert.Contains(t, out, "...")
}

func TestShrinkByPriority(t *testing.T) {
	widths := shrinkByPriority([]int{20, 20}, 30, []ColumnHint{{Priority: 5}, {Priority: -1}})
	assert.Equal(t, []int{20, 10}, widths)
}

func TestRenderColumnarTableEmpty(t *testing.T) {
	assert.Empty(t, RenderColumnarTable(nil, nil, ColumnarOptions{}))
	out := RenderColumnarTable([]string{"A"}, nil, ColumnarOptions{NoColor: true, TotalWidth: 40})
	assert.Len(t, lines(out), 2, "headers are shown without rows")
}

func TestTokenTable(t *testing.T) {
	tokens, err := query.TokenizeAll("tag:x")
	require.NoError(t, err)
	tbl := TokenTable(tokens)
	assert.Equal(t, []string{"OFFSET", "KIND", "MODE", "TEXT"}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []string{"0", "term", "expression", `"tag"`}, tbl.Rows[0])
	assert.Equal(t, []string{"4", "value", "value", `"x"`}, tbl.Rows[2])
}

func TestStepTable(t *testing.T) {
	steps, err := query.Validate("tag:")
	require.NoError(t, err)
	tbl := StepTable(steps)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, string(query.StateValueStart), tbl.Rows[1][3])
	assert.Contains(t, tbl.Rows[1][4], "value")
}

func TestSuggestionTable(t *testing.T) {
	engine := completion.NewEngine(completion.NewSchemaProvider(schema.Default()))
	suggestions, err := engine.GetCompletions("file.na", schema.ObjectTypeObject)
	require.NoError(t, err)
	tbl := SuggestionTable(suggestions)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "file.name:", tbl.Rows[0][0])
	assert.Equal(t, "field", tbl.Rows[0][1])
}

func TestHistoryTable(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tbl := HistoryTable([]history.Entry{
		{ID: 2, Query: "tag:x", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 1, Query: "name:a", ObjectType: "file", CreatedAt: now.Add(-72 * time.Hour)},
	}, now)
	assert.Equal(t, []string{"2", "2 hours ago", "object", "tag:x"}, tbl.Rows[0])
	assert.Equal(t, []string{"1", "3 days ago", "file", "name:a"}, tbl.Rows[1])
}

func TestSchemaTable(t *testing.T) {
	s := schema.Default()
	tbl := SchemaTable(s, schema.ObjectTypeConfig)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []string{"config", "cfg.", "subfield"}, tbl.Rows[2][:3])

	all := SchemaTable(s)
	assert.Len(t, all.Rows, 30)
	assert.Equal(t, "parent:(", all.Rows[10][1])
	assert.Equal(t, "subquery", all.Rows[10][2])
}

func TestResultTable(t *testing.T) {
	tbl := ResultTable([]any{
		map[string]any{"sha256": "ab", "file_size": 10.0},
		map[string]any{"sha256": "cd", "tags": []any{"x"}},
		"loose",
	})
	assert.Equal(t, []string{"file_size", "sha256", "tags", "value"}, tbl.Columns)
	assert.Equal(t, []string{"10", "ab", "", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"", "cd", `["x"]`, ""}, tbl.Rows[1])
	assert.Equal(t, []string{"", "", "", "loose"}, tbl.Rows[2])
}

func TestTableRenderMergesHints(t *testing.T) {
	tbl := Table{Columns: []string{"N"}, Rows: [][]string{{"1"}, {"100"}}, Hints: map[string]ColumnHint{"N": {Align: "right"}}}
	out := tbl.Render(ColumnarOptions{NoColor: true, TotalWidth: 40, RowNumberStyle: "none"})
	assert.Equal(t, []string{"N", "───", "  1", "100"}, lines(out))
}

func TestAnnotationRows(t *testing.T) {
	ann, err := query.Annotate("parent:(file.na")
	require.NoError(t, err)
	rows := AnnotationRows(ann)
	assert.Equal(t, []string{"field_path", `["file" "na"]`}, rows[0])
	assert.Equal(t, []string{"inside_subquery", "true"}, rows[4])
}
