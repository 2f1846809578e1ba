// Package tui is the interactive terminal front-end: a bubbletea REPL that
// feeds each entered line to the shell.
package tui

import (
	"strings"
	"time"
	"unicode/utf8"

	"vshell/internal/logging"
	"vshell/internal/shell"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	logger = logging.GetLogger().WithPrefix("tui")

	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

const (
	activeCursor   = "█"
	inactiveCursor = " "
)

type tickMsg time.Time

type displayEntryType int

const (
	displayEntryCommand displayEntryType = iota
	displayEntryOutput
)

type displayEntry struct {
	entryType displayEntryType
	prompt    string
	content   string
	isErr     bool
}

// Model is the bubbletea model of one shell session.
type Model struct {
	shell    *shell.Shell
	history  *history
	buffer   string
	cursor   int // byte offset, always on a rune boundary
	quitting bool
	cursorOn bool

	displayHistory []displayEntry
}

// New creates a model driving sh.
func New(sh *shell.Shell) Model {
	return Model{
		shell:    sh,
		history:  newHistory(),
		cursorOn: true,
	}
}

// Run starts the program on the terminal and blocks until the session ends.
func Run(sh *shell.Shell) error {
	logger.Debug("Starting interactive session %s", sh.SessionID())
	_, err := tea.NewProgram(New(sh)).Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles key presses. Commands run inside Update so the engine only
// ever sees one caller.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.buffer != "" {
				m.displayHistory = append(m.displayHistory, displayEntry{
					entryType: displayEntryCommand,
					prompt:    m.shell.Prompt(),
					content:   m.buffer + "^C",
				})
			}
			m.buffer = ""
			m.cursor = 0
			return m, nil
		case tea.KeyCtrlD:
			return m.execute("exit")
		case tea.KeyEnter:
			command := strings.TrimSpace(m.buffer)
			m.buffer = ""
			m.cursor = 0
			if command == "" {
				return m, nil
			}
			return m.execute(command)
		case tea.KeyBackspace:
			if m.cursor > 0 {
				_, size := utf8.DecodeLastRuneInString(m.buffer[:m.cursor])
				m.buffer = m.buffer[:m.cursor-size] + m.buffer[m.cursor:]
				m.cursor -= size
			}
			return m, nil
		case tea.KeyLeft:
			if m.cursor > 0 {
				_, size := utf8.DecodeLastRuneInString(m.buffer[:m.cursor])
				m.cursor -= size
			}
			return m, nil
		case tea.KeyRight:
			if m.cursor < len(m.buffer) {
				_, size := utf8.DecodeRuneInString(m.buffer[m.cursor:])
				m.cursor += size
			}
			return m, nil
		case tea.KeyUp:
			m.history.start(m.buffer)
			m.buffer = m.history.navigate(true)
			m.cursor = len(m.buffer)
			return m, nil
		case tea.KeyDown:
			if m.history.active() {
				m.buffer = m.history.navigate(false)
				m.cursor = len(m.buffer)
			}
			return m, nil
		case tea.KeySpace:
			m.buffer = m.buffer[:m.cursor] + " " + m.buffer[m.cursor:]
			m.cursor++
			return m, nil
		default:
			if msg.Type == tea.KeyRunes {
				text := string(msg.Runes)
				text = strings.ReplaceAll(text, "\r", "")
				text = strings.ReplaceAll(text, "\n", " ")
				text = strings.ReplaceAll(text, "\t", " ")
				m.buffer = m.buffer[:m.cursor] + text + m.buffer[m.cursor:]
				m.cursor += len(text)
			}
			return m, nil
		}
	case tickMsg:
		m.cursorOn = !m.cursorOn
		return m, tick()
	}
	return m, nil
}

func (m Model) execute(command string) (tea.Model, tea.Cmd) {
	m.history.add(command)
	m.displayHistory = append(m.displayHistory, displayEntry{
		entryType: displayEntryCommand,
		prompt:    m.shell.Prompt(),
		content:   command,
	})

	result := m.shell.Execute(command)
	if result.Output != "" {
		m.displayHistory = append(m.displayHistory, displayEntry{
			entryType: displayEntryOutput,
			content:   result.Output,
			isErr:     result.IsErr(),
		})
	}

	if result.Quit {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the model
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Virtual Shell"))
	b.WriteString("\n")
	b.WriteString("Type 'help' for available commands.\n")
	b.WriteString("Type 'exit' or press Ctrl+D to quit.\n\n")

	for _, entry := range m.displayHistory {
		switch entry.entryType {
		case displayEntryCommand:
			b.WriteString(promptStyle.Render(entry.prompt))
			b.WriteString(entry.content)
			b.WriteString("\n")
		case displayEntryOutput:
			content := strings.TrimSuffix(entry.content, "\n")
			if entry.isErr {
				content = errorStyle.Render(content)
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}

	b.WriteString(promptStyle.Render(m.shell.Prompt()))
	b.WriteString(m.buffer[:m.cursor])
	if m.cursorOn {
		b.WriteString(activeCursor)
	} else {
		b.WriteString(inactiveCursor)
	}
	b.WriteString(m.buffer[m.cursor:])
	b.WriteString("\n")

	return b.String()
}
