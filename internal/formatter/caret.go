package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Caret returns a line that places "^" under the character of text at byte
// offset. Offsets past the end point just after the last character. Tabs in
// text are kept so the caret lines up in a terminal.
func Caret(text string, offset int) string {
	offset = max(0, min(offset, len(text)))
	var b strings.Builder
	for _, r := range text[:offset] {
		switch {
		case r == '\t':
			b.WriteByte('\t')
		default:
			b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
		}
	}
	b.WriteByte('^')
	return b.String()
}

// ErrorWithCaret renders the query, a caret line at offset and the message.
func ErrorWithCaret(text string, offset int, msg string, noColor bool) string {
	caret := Caret(text, offset)
	if !noColor {
		caret = errorStyle.Render(caret)
		msg = errorStyle.Render(msg)
	}
	return text + "\n" + caret + "\n" + msg + "\n"
}
