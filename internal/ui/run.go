package ui

import (
	"context"
	"errors"
	"io"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/mwq/pkg/intellisense"
)

// ErrCancelled is returned by Run when the editor is left without accepting a query.
var ErrCancelled = errors.New("query editor cancelled")

// Options configures Run.
type Options struct {
	Engine     *intellisense.Engine
	ObjectType intellisense.ObjectType
	Initial    string
	History    []string // newest first
	NoColor    bool
	Input      io.Reader
	Output     io.Writer
}

// Run opens the editor and returns the accepted query.
func Run(ctx context.Context, opts Options) (string, error) {
	m := NewModel(opts.Engine, opts.ObjectType, opts.Initial)
	m.SetNoColor(opts.NoColor)
	m.SetHistory(opts.History)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		return "", err
	}
	if fm, ok := final.(*Model); ok && fm.Accepted != "" {
		return fm.Accepted, nil
	}
	return "", ErrCancelled
}
