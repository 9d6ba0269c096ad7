package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pollDoneMsg struct {
	err error
}

type pollSpinnerModel struct {
	spinner spinner.Model
	label   string
	poll    tea.Cmd
	err     error
	done    bool
}

func newPollSpinnerModel(label string, poll tea.Cmd) pollSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return pollSpinnerModel{
		spinner: s,
		label:   label,
		poll:    poll,
	}
}

func (m pollSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll)
}

func (m pollSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case pollDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m pollSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runPollSpinner(ctx context.Context, output io.Writer, poll func(context.Context) error) error {
	pollCmd := func() tea.Msg {
		return pollDoneMsg{err: poll(ctx)}
	}

	p := tea.NewProgram(
		newPollSpinnerModel("Polling sensors...", pollCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(pollSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
