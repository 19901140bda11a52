package cli

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestProgressModel(t *testing.T) {
	m := newProgressModel("Computing")

	_, cmd := m.Update(progressMsg{Done: 1, Total: 4})
	assert.Nil(t, cmd)
	assert.Equal(t, 0.25, m.percent())
	assert.Contains(t, m.View(), "1/4 attempt lookups")

	_, cmd = m.Update(doneMsg{})
	assert.NotNil(t, cmd)
	assert.True(t, m.finished)
	assert.NoError(t, m.err)
	assert.Contains(t, m.View(), "Done: 4 lookups")
}

func TestProgressModel_Failure(t *testing.T) {
	m := newProgressModel("Computing")

	m.Update(doneMsg{Err: errors.New("moodle core_course_get_courses: boom")})
	assert.Contains(t, m.View(), "boom")
}

func TestProgressModel_Quit(t *testing.T) {
	m := newProgressModel("Computing")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
	assert.ErrorIs(t, m.err, ErrCancelled)
}

func TestProgressModel_EmptyTotal(t *testing.T) {
	m := newProgressModel("Computing")
	assert.Zero(t, m.percent())
}
