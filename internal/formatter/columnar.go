package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ColumnHint provides display hints for one column of a columnar table.
type ColumnHint struct {
	// MaxWidth caps the column width (in characters). 0 = no cap.
	MaxWidth int

	// Priority controls column importance when shrinking.
	// Higher values resist shrinking; lower values shrink first.
	Priority int

	// Align controls text alignment: "right" or "left" (default).
	Align string
}

// ColumnarOptions configures columnar table rendering.
type ColumnarOptions struct {
	// NoColor disables color output
	NoColor bool

	// TotalWidth is the total available width. If 0, uses terminal width.
	TotalWidth int

	// RowNumberStyle controls how row numbers are displayed:
	//   "numbered" - 1, 2, 3 (default)
	//   "index"    - [0], [1], [2]
	//   "none"     - no row number column
	RowNumberStyle string

	// ColumnHints are keyed by column header.
	ColumnHints map[string]ColumnHint
}

// RenderColumnarTable renders rows under the given column headers.
func RenderColumnarTable(columns []string, rows [][]string, opts ColumnarOptions) string {
	if len(columns) == 0 {
		return ""
	}

	colAligns := make([]string, len(columns))
	hints := make([]ColumnHint, len(columns))
	for i, col := range columns {
		if h, ok := opts.ColumnHints[col]; ok {
			hints[i] = h
			colAligns[i] = h.Align
		}
	}

	totalWidth := opts.TotalWidth
	if totalWidth <= 0 {
		totalWidth = TerminalWidth()
	}

	showRowNum := opts.RowNumberStyle != "none"
	rowNumWidth := 0
	if showRowNum {
		rowNumWidth = len(fmt.Sprintf("%d", len(rows))) + 2
	}

	const sepWidth = 2
	availableWidth := totalWidth - rowNumWidth
	if showRowNum {
		availableWidth -= sepWidth
	}
	colWidths := calculateColumnWidths(columns, rows, availableWidth, hints)

	var b strings.Builder
	b.WriteString(renderHeader(columns, colWidths, sepWidth, rowNumWidth, showRowNum, opts.NoColor) + "\n")

	totalHeaderWidth := rowNumWidth
	if showRowNum {
		totalHeaderWidth += sepWidth
	}
	for i, w := range colWidths {
		totalHeaderWidth += w
		if i < len(colWidths)-1 {
			totalHeaderWidth += sepWidth
		}
	}
	separator := strings.Repeat("─", totalHeaderWidth)
	if !opts.NoColor {
		separator = separatorStyle.Render(separator)
	}
	b.WriteString(separator + "\n")

	for i, row := range rows {
		b.WriteString(renderDataRow(i, row, colWidths, sepWidth, rowNumWidth, opts.RowNumberStyle, opts.NoColor, colAligns) + "\n")
	}
	return b.String()
}

func calculateColumnWidths(columns []string, rows [][]string, availableWidth int, hints []ColumnHint) []int {
	numCols := len(columns)
	const sepWidth = 2
	const minColWidth = 3

	widths := make([]int, numCols)
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < numCols {
				widths[i] = max(widths[i], runewidth.StringWidth(val))
			}
		}
	}
	for i := range widths {
		if i < len(hints) && hints[i].MaxWidth > 0 && widths[i] > hints[i].MaxWidth {
			widths[i] = hints[i].MaxWidth
		}
	}

	usableWidth := availableWidth - (numCols-1)*sepWidth
	totalNeeded := 0
	for _, w := range widths {
		totalNeeded += w
	}
	if totalNeeded <= usableWidth || usableWidth <= 0 {
		return widths
	}
	if hasPriorities(hints) {
		return shrinkByPriority(widths, usableWidth, hints)
	}

	// Proportional shrink.
	totalOriginal := totalNeeded
	for i := range widths {
		widths[i] = max(int(float64(widths[i])/float64(totalOriginal)*float64(usableWidth)), minColWidth)
	}
	for {
		total := 0
		maxIdx := 0
		for i, w := range widths {
			total += w
			if w > widths[maxIdx] {
				maxIdx = i
			}
		}
		if total <= usableWidth || widths[maxIdx] <= minColWidth {
			break
		}
		widths[maxIdx]--
	}
	return widths
}

func hasPriorities(hints []ColumnHint) bool {
	for _, h := range hints {
		if h.Priority != 0 {
			return true
		}
	}
	return false
}

// shrinkByPriority reduces column widths to fit within usableWidth by shrinking
// lowest-priority columns first.
func shrinkByPriority(widths []int, usableWidth int, hints []ColumnHint) []int {
	const minColWidth = 3
	total := 0
	for _, w := range widths {
		total += w
	}
	excess := total - usableWidth

	order := make([]int, len(widths))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return hints[order[a]].Priority < hints[order[b]].Priority
	})

	for _, idx := range order {
		if excess <= 0 {
			break
		}
		shrink := min(widths[idx]-minColWidth, excess)
		if shrink <= 0 {
			continue
		}
		widths[idx] -= shrink
		excess -= shrink
	}
	return widths
}

func renderHeader(columns []string, widths []int, sepWidth, rowNumWidth int, showRowNum, noColor bool) string {
	sep := strings.Repeat(" ", sepWidth)
	parts := make([]string, 0, len(columns)+1)
	if showRowNum {
		header := padRight("#", rowNumWidth)
		if !noColor {
			header = headerStyle.Render(header)
		}
		parts = append(parts, header)
	}
	for i, col := range columns {
		header := padRight(truncate(col, widths[i]), widths[i])
		if !noColor {
			header = headerStyle.Render(header)
		}
		parts = append(parts, header)
	}
	return strings.TrimRight(strings.Join(parts, sep), " ")
}

func renderDataRow(rowIndex int, values []string, widths []int, sepWidth, rowNumWidth int, rowNumStyle string, noColor bool, colAligns []string) string {
	sep := strings.Repeat(" ", sepWidth)
	parts := make([]string, 0, len(widths)+1)

	if rowNumStyle != "none" {
		numStr := fmt.Sprintf("%d", rowIndex+1)
		if rowNumStyle == "index" {
			numStr = fmt.Sprintf("[%d]", rowIndex)
		}
		numStr = padRight(numStr, rowNumWidth)
		if !noColor {
			numStr = keyStyle.Render(numStr)
		}
		parts = append(parts, numStr)
	}

	for i, w := range widths {
		var val string
		if i < len(values) {
			val = values[i]
		}
		var valStr string
		if colAligns[i] == "right" {
			valStr = padLeft(truncate(val, w), w)
		} else {
			valStr = padRight(truncate(val, w), w)
		}
		if !noColor {
			valStr = valueStyle.Render(valStr)
		}
		parts = append(parts, valStr)
	}
	return strings.TrimRight(strings.Join(parts, sep), " ")
}
