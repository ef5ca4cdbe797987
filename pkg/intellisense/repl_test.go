package intellisense

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runREPL(t *testing.T, r *REPL, input string) string {
	t.Helper()
	var out strings.Builder
	require.NoError(t, r.Run(strings.NewReader(input), &out))
	return out.String()
}

func TestREPLValidatesQueries(t *testing.T) {
	out := runREPL(t, &REPL{}, "tag:x\ntag: AND\n")
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "Error: unexpected boolean operator")
	assert.Contains(t, out, "  tag: AND\n       ^\n")
}

func TestREPLSuggests(t *testing.T) {
	out := runREPL(t, &REPL{}, "? file.na\n? tag:\n")
	assert.Contains(t, out, "[field] file.name:")
	assert.Contains(t, out, "→ file.name:")
	assert.Contains(t, out, "No suggestions available")
}

func TestREPLTruncatesLongLists(t *testing.T) {
	out := runREPL(t, &REPL{}, "? \n")
	assert.Contains(t, out, "... and 20 more")
}

func TestREPLCommands(t *testing.T) {
	out := runREPL(t, &REPL{Prompt: "> "}, "help\nfields\nexit\ntag:x\n")
	assert.Contains(t, out, "Query Syntax:")
	assert.Contains(t, out, "=== FILE ===")
	assert.Contains(t, out, "parent:(")
	assert.NotContains(t, out, "valid", "input after exit is not read")
}

func TestREPLOnQuery(t *testing.T) {
	var seen []string
	r := &REPL{OnQuery: func(q string) error {
		seen = append(seen, q)
		if q == "tag:fail" {
			return errors.New("search failed")
		}
		return nil
	}}
	out := runREPL(t, r, "tag:ok\ntag:fail\ntag:\n")
	assert.Equal(t, []string{"tag:ok", "tag:fail"}, seen)
	assert.Contains(t, out, "Error: search failed")
}
