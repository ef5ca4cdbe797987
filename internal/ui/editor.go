package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/mwq/internal/formatter"
	"github.com/oakwood-commons/mwq/pkg/intellisense"
)

// DefaultMaxSuggestions caps the suggestion list height.
const DefaultMaxSuggestions = 8

// Model is the interactive query editor. Suggestions refresh on every edit;
// Tab splices the selected one into the query and Enter accepts a complete query.
type Model struct {
	Input          textinput.Model
	Engine         *intellisense.Engine
	ObjectType     intellisense.ObjectType
	Suggestions    []intellisense.Suggestion
	Selected       int
	MaxSuggestions int
	NoColor        bool
	WinWidth       int

	// Err is the lex or grammar error for the current text, if any.
	Err error
	// ErrOffset is the query offset Err points at.
	ErrOffset int
	// Hint describes what may follow the cursor.
	Hint string

	// Accepted is the query confirmed with Enter; empty when cancelled.
	Accepted string
	// Status is a transient message, such as why Enter was refused.
	Status string

	types   []intellisense.ObjectType
	history []string
	histIdx int
	styles  styles
}

// NewModel creates an editor over engine, starting with initial text.
func NewModel(engine *intellisense.Engine, objectType intellisense.ObjectType, initial string) *Model {
	if engine == nil {
		engine = intellisense.New()
	}
	if objectType == "" {
		objectType = intellisense.ObjectTypeObject
	}
	ti := textinput.New()
	ti.Placeholder = "tag:emotet AND file.size:>1024"
	ti.CharLimit = 2000
	ti.SetWidth(80)
	ti.Prompt = ""
	ti.SetValue(initial)
	ti.SetCursor(len(initial))
	ti.Focus()

	m := &Model{
		Input:          ti,
		Engine:         engine,
		ObjectType:     objectType,
		MaxSuggestions: DefaultMaxSuggestions,
		types:          engine.Schema().Types(),
		styles:         newStyles(false),
	}
	m.refresh()
	return m
}

// SetHistory provides earlier queries, newest first, for Up/Down recall
// when the suggestion list is empty.
func (m *Model) SetHistory(queries []string) {
	m.history = queries
	m.histIdx = -1
}

// SetNoColor toggles styling.
func (m *Model) SetNoColor(noColor bool) {
	m.NoColor = noColor
	m.styles = newStyles(noColor)
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WinWidth = msg.Width
		m.Input.SetWidth(max(msg.Width-runewidth.StringWidth(m.prompt())-1, 10))
		return m, nil

	case tea.KeyPressMsg:
		m.Status = ""
		switch msg.String() {
		case "ctrl+c", "esc":
			m.Accepted = ""
			return m, tea.Quit
		case "enter":
			return m, m.accept()
		case "tab":
			m.applySelected()
			return m, nil
		case "down", "ctrl+n":
			if len(m.Suggestions) == 0 {
				m.recall(-1)
				return m, nil
			}
			m.Selected = (m.Selected + 1) % len(m.Suggestions)
			return m, nil
		case "up", "ctrl+p":
			if len(m.Suggestions) == 0 {
				m.recall(1)
				return m, nil
			}
			m.Selected = (m.Selected - 1 + len(m.Suggestions)) % len(m.Suggestions)
			return m, nil
		case "ctrl+t":
			m.cycleType()
			m.refresh()
			return m, nil
		}
	}

	before := m.Input.Value()
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	if m.Input.Value() != before {
		m.refresh()
	}
	return m, cmd
}

// Query returns the current editor text.
func (m *Model) Query() string {
	return m.Input.Value()
}

// SetQuery replaces the editor text and moves the cursor to the end.
func (m *Model) SetQuery(q string) {
	m.Input.SetValue(q)
	m.Input.SetCursor(len(q))
	m.refresh()
}

func (m *Model) accept() tea.Cmd {
	q := m.Input.Value()
	if strings.TrimSpace(q) == "" {
		m.Status = "query is empty"
		return nil
	}
	if _, err := intellisense.ValidateComplete(q); err != nil {
		m.setErr(err)
		m.Status = "query is not complete"
		return nil
	}
	m.Accepted = q
	return tea.Quit
}

func (m *Model) applySelected() {
	if len(m.Suggestions) == 0 {
		return
	}
	s := m.Suggestions[min(m.Selected, len(m.Suggestions)-1)]
	m.SetQuery(s.Apply(m.Input.Value()))
}

func (m *Model) recall(dir int) {
	if len(m.history) == 0 {
		return
	}
	next := m.histIdx + dir
	if next < -1 || next >= len(m.history) {
		return
	}
	m.histIdx = next
	if next == -1 {
		m.SetQuery("")
		return
	}
	m.SetQuery(m.history[next])
}

func (m *Model) cycleType() {
	if len(m.types) == 0 {
		return
	}
	idx := 0
	for i, t := range m.types {
		if t == m.ObjectType {
			idx = i
			break
		}
	}
	m.ObjectType = m.types[(idx+1)%len(m.types)]
}

// refresh recomputes suggestions, error and hint for the current text.
func (m *Model) refresh() {
	q := m.Input.Value()
	m.Err = nil
	m.Hint = ""
	m.Selected = 0

	suggestions, err := m.Engine.Suggest(q, m.ObjectType)
	if err != nil {
		m.Suggestions = nil
		m.setErr(err)
		return
	}
	m.Suggestions = suggestions

	ann, err := intellisense.Annotate(q)
	if err != nil {
		m.setErr(err)
		return
	}
	if _, err := intellisense.ValidateComplete(q); err == nil && strings.TrimSpace(q) != "" {
		m.Hint = "complete"
		return
	}
	m.Hint = "expecting " + formatter.KindList(ann.Next)
}

func (m *Model) setErr(err error) {
	m.Err = err
	m.ErrOffset = len(m.Input.Value())
	if off, ok := intellisense.ErrorOffset(err); ok {
		m.ErrOffset = off
	}
}

func (m *Model) prompt() string {
	return fmt.Sprintf("mwq [%s]❯ ", m.ObjectType)
}

// Render returns the editor as plain text lines; View wraps it.
func (m *Model) Render() string {
	var b strings.Builder
	prompt := m.prompt()
	b.WriteString(m.styles.prompt.Render(prompt) + m.Input.View() + "\n")

	pad := strings.Repeat(" ", runewidth.StringWidth(prompt))
	if m.Err != nil {
		caret := formatter.Caret(m.Input.Value(), m.ErrOffset)
		b.WriteString(pad + m.styles.err.Render(caret) + "\n")
		b.WriteString(m.styles.err.Render(m.Err.Error()) + "\n")
	} else if m.Hint != "" {
		b.WriteString(m.styles.hint.Render(m.Hint) + "\n")
	}

	b.WriteString(m.renderSuggestions())

	if m.Status != "" {
		b.WriteString(m.styles.status.Render(m.Status) + "\n")
	}
	b.WriteString(m.styles.help.Render("tab complete • ↑/↓ select • ctrl+t type • enter accept • esc cancel"))
	return b.String()
}

func (m *Model) renderSuggestions() string {
	if len(m.Suggestions) == 0 {
		return ""
	}
	limit := m.MaxSuggestions
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}
	// Keep the selection inside the visible window.
	start := 0
	if m.Selected >= limit {
		start = m.Selected - limit + 1
	}
	end := min(start+limit, len(m.Suggestions))

	nameWidth := 0
	for _, s := range m.Suggestions[start:end] {
		nameWidth = max(nameWidth, runewidth.StringWidth(s.Display))
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		s := m.Suggestions[i]
		line := runewidth.FillRight(s.Display, nameWidth)
		if s.Description != "" {
			line += "  " + s.Description
		}
		if m.WinWidth > 2 {
			line = runewidth.Truncate(line, m.WinWidth-2, "…")
		}
		if i == m.Selected {
			b.WriteString(m.styles.selected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(m.styles.item.Render("  "+line) + "\n")
		}
	}
	if rest := len(m.Suggestions) - end; rest > 0 {
		b.WriteString(m.styles.hint.Render(fmt.Sprintf("  … %d more", rest)) + "\n")
	}
	return b.String()
}

func (m *Model) View() tea.View {
	return tea.NewView(m.Render())
}

type styles struct {
	prompt   lipgloss.Style
	err      lipgloss.Style
	hint     lipgloss.Style
	item     lipgloss.Style
	selected lipgloss.Style
	status   lipgloss.Style
	help     lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		prompt:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		err:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		item:     lipgloss.NewStyle().Foreground(lipgloss.Color("248")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		help:     lipgloss.NewStyle().Faint(true),
	}
}
