package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/chatpatch/model"
)

type fakeRunner struct {
	summary model.Summary
	err     error
	gotCtx  context.Context
}

func (f *fakeRunner) Execute(ctx context.Context) (model.Summary, error) {
	f.gotCtx = ctx
	return f.summary, f.err
}

func (f *fakeRunner) SourceName() string { return "clipboard" }

func TestModel_Summary(t *testing.T) {
	runner := &fakeRunner{summary: model.Summary{
		Patched:  []string{"main.go"},
		Missing:  []string{"gone.go"},
		Warnings: []string{"main.go (diff 1): hunk 1 at line 1: context does not match original"},
		Skipped:  2,
		Written:  []string{"main.go"},
		Target:   "patched.zip",
	}}
	m := New(context.Background(), runner)
	assert.Contains(t, m.View(), "Patching from clipboard")

	msg := m.runApp()
	require.NotNil(t, runner.gotCtx)

	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	final := next.(Model)
	assert.NoError(t, final.Err())

	view := final.View()
	for _, want := range []string{"Patched:", "main.go", "Original not found:", "gone.go", "Warnings:", "Skipped 2", "patched.zip"} {
		assert.Contains(t, view, want)
	}
	assert.Error(t, runner.gotCtx.Err(), "run context is released once done")
}

func TestModel_Error(t *testing.T) {
	m := New(context.Background(), &fakeRunner{err: errors.New("no clipboard")})

	next, _ := m.Update(m.runApp())
	final := next.(Model)
	assert.EqualError(t, final.Err(), "no clipboard")
	assert.Contains(t, final.View(), "no clipboard")
}

func TestModel_NothingToDo(t *testing.T) {
	m := New(context.Background(), &fakeRunner{})

	next, _ := m.Update(m.runApp())
	assert.Contains(t, next.View(), "Nothing to do.")
}

func TestModel_QuitWhileProcessing(t *testing.T) {
	m := New(context.Background(), &fakeRunner{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.ErrorIs(t, next.(Model).Err(), context.Canceled)
	assert.Error(t, m.ctx.Err())
}
