package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// Task is long-running work shown by RunTask. It calls report with the
// running row count and returns a one-line summary on success.
type Task func(ctx context.Context, report func(rows int64)) (string, error)

// RunTask runs task behind a spinner on an interactive terminal and with
// plain line output otherwise. Pressing ctrl+c cancels the task's context;
// RunTask returns only after the task has finished.
func RunTask(ctx context.Context, out io.Writer, message string, task Task) error {
	if !IsInteractive() {
		return RunTaskPlain(ctx, out, message, task)
	}
	return runSpinner(ctx, out, message, task)
}

// RunTaskPlain runs task with line-oriented progress output and leaves
// stdin to the task.
func RunTaskPlain(ctx context.Context, out io.Writer, message string, task Task) error {
	fmt.Fprintf(out, "%s...\n", message)
	summary, err := task(ctx, func(rows int64) {
		fmt.Fprintf(out, "  %s %s rows\n", SymbolBullet, humanize.Comma(rows))
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", SymbolCheck, summary)
	return nil
}

func runSpinner(ctx context.Context, out io.Writer, message string, task Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(message, cancel), tea.WithOutput(out))

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		summary, err := task(ctx, func(rows int64) { p.Send(rowsMsg(rows)) })
		p.Send(doneMsg{summary: summary, err: err})
	}()

	final, runErr := p.Run()
	cancel()
	<-finished
	if runErr != nil {
		return fmt.Errorf("progress display failed: %w", runErr)
	}
	return final.(progressModel).err
}

type rowsMsg int64

type doneMsg struct {
	summary string
	err     error
}

type progressModel struct {
	spinner    spinner.Model
	keys       KeyMap
	message    string
	rows       int64
	cancel     context.CancelFunc
	cancelling bool
	done       bool
	summary    string
	err        error
}

func newProgressModel(message string, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return progressModel{spinner: s, keys: DefaultKeyMap(), message: message, cancel: cancel}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.cancelling {
			m.cancelling = true
			m.cancel()
		}
		return m, nil
	case rowsMsg:
		m.rows = int64(msg)
		return m, nil
	case doneMsg:
		m.done = true
		m.summary, m.err = msg.summary, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		if m.err != nil {
			return ErrorStyle.Render(SymbolCross+" "+m.message+" failed") + "\n"
		}
		return SuccessStyle.Render(SymbolCheck+" "+m.summary) + "\n"
	}

	line := m.spinner.View() + " " + m.message
	if m.rows > 0 {
		line += MutedStyle.Render(fmt.Sprintf(" (%s rows)", humanize.Comma(m.rows)))
	}
	if m.cancelling {
		line += WarningStyle.Render(" cancelling...")
	}
	return line + "\n" + HelpStyle.Render(m.keys.HelpText()) + "\n"
}
