package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user quits a progress view before the work is done.
var ErrCancelled = errors.New("cancelled")

// RunWithProgress runs work while showing its progress on output.
//
// work reports the finished and total steps through its progress callback.
// Quitting the view cancels the context passed to work.
func RunWithProgress(ctx context.Context, output io.Writer, title string, work func(ctx context.Context, progress func(done, total int)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newProgressModel(title), tea.WithContext(ctx), tea.WithOutput(output))

	go func() {
		err := work(ctx, func(done, total int) {
			program.Send(progressMsg{Done: done, Total: total})
		})
		program.Send(doneMsg{Err: err})
	}()

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}

	return final.(*progressModel).err
}

// progressModel is the Bubble Tea model of a progress view.
type progressModel struct {
	title    string
	progress progress.Model
	spinner  spinner.Model

	done     int
	total    int
	finished bool
	err      error
}

func newProgressModel(title string) *progressModel {
	prog := progress.New(progress.WithScaledGradient("#FF7CCB", "#FDFF8C"))
	prog.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &progressModel{
		title:    title,
		progress: prog,
		spinner:  s,
	}
}

type progressMsg struct {
	Done  int
	Total int
}

type doneMsg struct {
	Err error
}

func (m *progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.err = ErrCancelled
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.done = msg.Done
		m.total = msg.Total
		return m, nil

	case doneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit

	default:
		return m, nil
	}
}

func (m *progressModel) percent() float64 {
	if m.total == 0 {
		return 0
	}

	return float64(m.done) / float64(m.total)
}

func (m *progressModel) View() string {
	if m.finished {
		if m.err != nil {
			return lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("Failed: "+m.err.Error()) + "\n"
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render(fmt.Sprintf("Done: %d lookups", m.total)) + "\n"
	}

	s := "\n" + lipgloss.NewStyle().Bold(true).Render(m.title) + "\n\n"
	s += fmt.Sprintf("Progress: %s %.1f%%\n\n", m.progress.ViewAs(m.percent()), m.percent()*100)
	s += m.spinner.View() + fmt.Sprintf(" %d/%d attempt lookups\n", m.done, m.total)
	s += "\nPress 'q' to quit.\n"

	return s
}
