package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// run drives model full-screen until it quits or ctx is cancelled. Cancellation is not
// reported as an error.
func run(ctx context.Context, model tea.Model) (tea.Model, error) {
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return final, nil
	}
	return final, err
}
