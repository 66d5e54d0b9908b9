package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/chatpatch/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Runner is what the view drives. *chatpatch.App satisfies it.
type Runner interface {
	Execute(ctx context.Context) (model.Summary, error)
	SourceName() string
}

// stackTracer is implemented by errors that carry a stack trace.
type stackTracer interface {
	error
	StackTrace() []byte
}

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// --- Model ---
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	app     Runner
	spinner spinner.Model
	state   state
	summary summaryMsg
	err     error
}

type state int

const (
	stateProcessing state = iota
	stateSummary
	stateError
)

// New creates the view for one run of app.
func New(ctx context.Context, app Runner) Model {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		app:     app,
		spinner: s,
		state:   stateProcessing,
	}
}

// Err returns the error the run ended with, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			if m.state == stateProcessing {
				m.state = stateError
				m.err = context.Canceled
			}
			return m, tea.Quit
		}

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		m.cancel()
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg.err
		m.cancel()
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		return fmt.Sprintf("%s Patching from %s...", m.spinner.View(), m.app.SourceName())
	case stateError:
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func writeList(b *strings.Builder, title lipgloss.Style, heading string, items []string) {
	b.WriteString(title.Render(heading))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(item)))
	}
}

func (m *Model) renderSummary() string {
	var b strings.Builder
	s := m.summary.Summary

	if s.Message != "" {
		b.WriteString(headerStyle.Render(s.Message))
		b.WriteString("\n\n")
	}

	hasContent := false
	if len(s.Patched) > 0 {
		hasContent = true
		writeList(&b, successStyle, "Patched:", s.Patched)
	}
	if len(s.Missing) > 0 {
		hasContent = true
		writeList(&b, errorStyle, "Original not found:", s.Missing)
	}
	if len(s.Warnings) > 0 {
		hasContent = true
		writeList(&b, warningStyle, "Warnings:", s.Warnings)
	}
	if s.Skipped > 0 {
		hasContent = true
		b.WriteString(warningStyle.Render(fmt.Sprintf("Skipped %d malformed diff block(s).", s.Skipped)))
		b.WriteString("\n")
	}
	if s.Target != "" && len(s.Written) > 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("Wrote %d file(s) to %s", len(s.Written), s.Target)))
		b.WriteString("\n")
	}

	if !hasContent && s.Message == "" {
		b.WriteString(faintStyle.Render("Nothing to do."))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) runApp() tea.Msg {
	summary, err := m.app.Execute(m.ctx)
	if err != nil {
		var st stackTracer
		if errors.As(err, &st) {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", st.StackTrace())
		}
		return errorMsg{err}
	}
	return summaryMsg{Summary: summary}
}
