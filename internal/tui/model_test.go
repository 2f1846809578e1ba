package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"vshell/internal/archive"
	"vshell/internal/shell"
	"vshell/internal/vfs"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupModel(t *testing.T, members ...archive.Member) Model {
	t.Helper()

	store, err := archive.NewStore(filepath.Join(t.TempDir(), "fs.zip"))
	require.NoError(t, err)
	require.NoError(t, store.Save(members))

	fs, err := vfs.New(store, nil)
	require.NoError(t, err)

	return New(shell.New(fs, nil))
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func typeLine(line string) []tea.Msg {
	return []tea.Msg{
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(line)},
		tea.KeyMsg{Type: tea.KeyEnter},
	}
}

func TestModelExecutesCommands(t *testing.T) {
	m := setupModel(t, archive.Member{Name: "docs/readme.txt", Content: "hello"})

	m, cmd := press(t, m, typeLine("cd docs")...)
	assert.Nil(t, cmd)
	m, _ = press(t, m, typeLine("cat readme.txt")...)
	m, _ = press(t, m, typeLine("cat nope.txt")...)

	require.Len(t, m.displayHistory, 6)
	assert.Equal(t, displayEntry{entryType: displayEntryCommand, prompt: "/ $ ", content: "cd docs"}, m.displayHistory[0])
	assert.Equal(t, "Changed directory to docs", m.displayHistory[1].content)
	assert.Equal(t, "/docs $ ", m.displayHistory[2].prompt)
	assert.Equal(t, "hello", m.displayHistory[3].content)
	assert.False(t, m.displayHistory[3].isErr)
	assert.Equal(t, "Error: cat nope.txt: not found", m.displayHistory[5].content)
	assert.True(t, m.displayHistory[5].isErr)

	view := m.View()
	assert.Contains(t, view, "cat readme.txt")
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "/docs $ ")
}

func TestModelEditing(t *testing.T) {
	m := setupModel(t)

	m, _ = press(t, m,
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("pwx")},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")},
	)
	assert.Equal(t, "pwd", m.buffer)
	assert.Equal(t, 3, m.cursor)

	m, _ = press(t, m,
		tea.KeyMsg{Type: tea.KeyLeft},
		tea.KeyMsg{Type: tea.KeyLeft},
		tea.KeyMsg{Type: tea.KeyLeft},
		tea.KeyMsg{Type: tea.KeyLeft},
	)
	assert.Equal(t, 0, m.cursor)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, " pwd", m.buffer)
	assert.Equal(t, 2, m.cursor)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Empty(t, m.buffer)
	assert.Zero(t, m.cursor)
	require.Len(t, m.displayHistory, 1)
	assert.Equal(t, " pwd^C", m.displayHistory[0].content)
}

func TestModelEditingMultibyte(t *testing.T) {
	m := setupModel(t)

	m, _ = press(t, m,
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cat файл")},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyLeft},
	)
	assert.True(t, utf8.ValidString(m.buffer))
	assert.Equal(t, "cat фай", m.buffer)
	assert.Equal(t, len("cat фа"), m.cursor)
	assert.True(t, utf8.ValidString(m.View()))

	m, _ = press(t, m,
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("л")},
	)
	assert.Equal(t, "cat фйл", m.buffer)
	assert.Equal(t, len(m.buffer), m.cursor)
	assert.True(t, utf8.ValidString(m.View()))
}

func TestModelBlankEnter(t *testing.T) {
	m := setupModel(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("   ")}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, m.displayHistory)
}

func TestModelHistoryNavigation(t *testing.T) {
	m := setupModel(t)

	m, _ = press(t, m, typeLine("pwd")...)
	m, _ = press(t, m, typeLine("ls")...)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("he")})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "ls", m.buffer)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "pwd", m.buffer)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "pwd", m.buffer)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "ls", m.buffer)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "he", m.buffer)
	assert.Equal(t, 2, m.cursor)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "he", m.buffer)
}

func TestModelQuit(t *testing.T) {
	tests := []struct {
		name string
		msgs []tea.Msg
	}{
		{name: "exit command", msgs: typeLine("exit")},
		{name: "ctrl+d", msgs: []tea.Msg{tea.KeyMsg{Type: tea.KeyCtrlD}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := setupModel(t)
			m, cmd := press(t, m, tt.msgs...)
			require.NotNil(t, cmd)
			_, ok := cmd().(tea.QuitMsg)
			assert.True(t, ok)
			assert.True(t, m.quitting)
			assert.Equal(t, "Goodbye!\n", m.View())
		})
	}
}

func TestModelCursorBlink(t *testing.T) {
	m := setupModel(t)
	require.NotNil(t, m.Init())

	m, cmd := press(t, m, tickMsg{})
	assert.NotNil(t, cmd)
	assert.False(t, m.cursorOn)
	assert.True(t, strings.HasSuffix(m.View(), inactiveCursor+"\n"))
	assert.NotContains(t, m.View(), activeCursor)

	m, _ = press(t, m, tickMsg{})
	assert.True(t, strings.HasSuffix(m.View(), activeCursor+"\n"))
}
