package ui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/mwq/pkg/intellisense"
)

func newTestModel(t *testing.T, initial string) *Model {
	t.Helper()
	m := NewModel(nil, "", initial)
	m.SetNoColor(true)
	return m
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func press(m *Model, code rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyPressMsg{Code: code})
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNewModelSuggestsAllFields(t *testing.T) {
	m := newTestModel(t, "")
	assert.Len(t, m.Suggestions, 30)
	assert.Equal(t, intellisense.ObjectTypeObject, m.ObjectType)
	assert.Nil(t, m.Err)
	assert.Contains(t, m.Hint, "term")
}

func TestTypingAndTabCompletion(t *testing.T) {
	m := newTestModel(t, "")
	typeText(m, "file.na")
	assert.Equal(t, "file.na", m.Query())
	require.Len(t, m.Suggestions, 1)
	assert.Equal(t, "file.name:", m.Suggestions[0].Display)

	press(m, tea.KeyTab)
	assert.Equal(t, "file.name:", m.Query())
	assert.Empty(t, m.Suggestions, "no field suggestions in value position")
	assert.Contains(t, m.Hint, "value")

	typeText(m, "a.exe")
	assert.Equal(t, "complete", m.Hint)
}

func TestTabWithoutSuggestionsIsNoop(t *testing.T) {
	m := newTestModel(t, "tag:x")
	press(m, tea.KeyTab)
	assert.Equal(t, "tag:x", m.Query())
}

func TestSelectionWraps(t *testing.T) {
	m := newTestModel(t, "")
	press(m, tea.KeyDown)
	assert.Equal(t, 1, m.Selected)
	press(m, tea.KeyUp)
	press(m, tea.KeyUp)
	assert.Equal(t, 29, m.Selected)

	press(m, tea.KeyTab)
	assert.True(t, strings.HasPrefix(m.Query(), "blob."), m.Query())
}

func TestEnterRejectsIncompleteQuery(t *testing.T) {
	m := newTestModel(t, "tag:")
	cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Empty(t, m.Accepted)
	assert.Equal(t, "query is not complete", m.Status)
	require.Error(t, m.Err)
	assert.Equal(t, 4, m.ErrOffset)

	m.SetQuery("")
	assert.Nil(t, press(m, tea.KeyEnter))
	assert.Equal(t, "query is empty", m.Status)
}

func TestEnterAcceptsCompleteQuery(t *testing.T) {
	m := newTestModel(t, "tag:x AND parent:(file.size:>10)")
	cmd := press(m, tea.KeyEnter)
	assert.True(t, isQuit(cmd))
	assert.Equal(t, "tag:x AND parent:(file.size:>10)", m.Accepted)
}

func TestEscapeCancels(t *testing.T) {
	m := newTestModel(t, "tag:x")
	assert.True(t, isQuit(press(m, tea.KeyEscape)))
	assert.Empty(t, m.Accepted)
}

func TestLexErrorShowsCaret(t *testing.T) {
	m := newTestModel(t, `tag:"open`)
	var lexErr *intellisense.LexError
	require.ErrorAs(t, m.Err, &lexErr)
	assert.Equal(t, 4, m.ErrOffset)
	assert.Empty(t, m.Suggestions)

	pad := strings.Repeat(" ", len([]rune("mwq [object]❯ "))+4)
	assert.Contains(t, m.Render(), "\n"+pad+"^\n")
}

func TestCycleObjectType(t *testing.T) {
	m := newTestModel(t, "")
	_, _ = m.Update(tea.KeyPressMsg{Code: 't', Mod: tea.ModCtrl})
	assert.Equal(t, intellisense.ObjectTypeFile, m.ObjectType)
	assert.Len(t, m.Suggestions, 21)
	assert.Contains(t, m.Render(), "mwq [file]❯ ")

	for range 3 {
		_, _ = m.Update(tea.KeyPressMsg{Code: 't', Mod: tea.ModCtrl})
	}
	assert.Equal(t, intellisense.ObjectTypeObject, m.ObjectType)
}

func TestHistoryRecall(t *testing.T) {
	m := newTestModel(t, "tag:x")
	m.SetHistory([]string{"b:1", "a:1"})

	press(m, tea.KeyUp)
	assert.Equal(t, "b:1", m.Query())
	press(m, tea.KeyUp)
	assert.Equal(t, "a:1", m.Query())
	press(m, tea.KeyUp)
	assert.Equal(t, "a:1", m.Query(), "oldest entry stays")
	press(m, tea.KeyDown)
	assert.Equal(t, "b:1", m.Query())
	press(m, tea.KeyDown)
	assert.Equal(t, "", m.Query())
}

func TestRenderSuggestionWindow(t *testing.T) {
	m := newTestModel(t, "")
	m.MaxSuggestions = 5
	for range 6 {
		press(m, tea.KeyDown)
	}
	out := m.Render()
	assert.Contains(t, out, "▸ "+m.Suggestions[6].Display)
	assert.NotContains(t, out, "  "+m.Suggestions[0].Display+" ")
	assert.Contains(t, out, "… 23 more")
}

func TestWindowSizeTruncatesSuggestions(t *testing.T) {
	m := newTestModel(t, "")
	_, _ = m.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	assert.Equal(t, 20, m.WinWidth)
	for _, line := range strings.Split(m.renderSuggestions(), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 20, line)
	}
}
