// Package shell translates command lines into virtual filesystem calls and
// records every action to the audit log. It is shared by the interactive UI,
// the script runner and plain line input.
package shell

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"vshell/internal/audit"
	"vshell/internal/logging"
	"vshell/internal/vfs"

	"github.com/google/uuid"
)

var (
	logger = logging.GetLogger().WithPrefix("shell")
)

// Result is the outcome of one command line.
type Result struct {
	Output string
	Err    error
	Quit   bool
}

// IsErr reports whether the command failed.
func (r Result) IsErr() bool {
	return r.Err != nil
}

// Handler runs one command with its already split arguments.
type Handler func(s *Shell, args []string) Result

type command struct {
	usage   string
	help    string
	handler Handler
}

// Shell dispatches commands to a VirtualFS. It is not safe for concurrent
// use, matching the engine it drives.
type Shell struct {
	sessionID string
	fs        *vfs.VirtualFS
	recorder  audit.Recorder
	commands  map[string]command
}

// New creates a shell over fs. A nil recorder discards audit rows.
func New(fs *vfs.VirtualFS, recorder audit.Recorder) *Shell {
	if recorder == nil {
		recorder = audit.Discard{}
	}

	s := &Shell{
		sessionID: uuid.New().String(),
		fs:        fs,
		recorder:  recorder,
		commands:  commandMap(),
	}
	logger.Debug("Shell session %s started", s.sessionID)
	return s
}

// SessionID identifies this shell session in diagnostics.
func (s *Shell) SessionID() string {
	return s.sessionID
}

// Cwd renders the current directory as an absolute path.
func (s *Shell) Cwd() string {
	return vfs.Separator + s.fs.Pwd()
}

// Prompt returns the prompt shown before each command.
func (s *Shell) Prompt() string {
	return s.Cwd() + " $ "
}

// Execute runs one command line. Engine failures are reported in the
// result, never returned, so the session always continues.
func (s *Shell) Execute(line string) Result {
	name, args := SplitCommand(line)
	if name == "" {
		return Result{}
	}

	logger.Debug("Executing %q with %d args", name, len(args))

	cmd, ok := s.commands[name]
	if !ok {
		s.record("error", "Command not found: "+name)
		return Result{
			Output: fmt.Sprintf("Command %s not found.", name),
			Err:    fmt.Errorf("%w: unknown command %s", vfs.ErrArgument, name),
		}
	}

	result := cmd.handler(s, args)
	if result.Err != nil {
		logger.Debug("Command %q failed: %v", name, result.Err)
		s.record("error", result.Err.Error())
	}
	return result
}

// Commands returns the known command names, sorted.
func (s *Shell) Commands() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HelpText lists every command with its usage.
func (s *Shell) HelpText() string {
	var b strings.Builder
	b.WriteString("Available Commands:\n\n")
	for _, name := range s.Commands() {
		cmd := s.commands[name]
		fmt.Fprintf(&b, "  %-28s %s\n", cmd.usage, cmd.help)
	}
	return b.String()
}

func (s *Shell) record(action, details string) {
	if err := s.recorder.Record(action, details); err != nil {
		logger.Warn("Failed to record %s action: %v", action, err)
	}
}

// failure turns an engine error into a result.
func failure(err error) Result {
	return Result{Output: "Error: " + err.Error(), Err: err}
}

// usageError reports missing arguments for a command.
func usageError(op, usage string) Result {
	err := vfs.NewError(op, "", fmt.Errorf("%w: usage: %s", vfs.ErrArgument, usage))
	return Result{Output: "Usage: " + usage, Err: err}
}

// IsArgumentError reports whether the result failed on malformed input.
func IsArgumentError(r Result) bool {
	return errors.Is(r.Err, vfs.ErrArgument)
}

// SplitCommand separates the command name from its arguments. Arguments are
// split on spaces; single or double quotes group words into one argument.
func SplitCommand(line string) (string, []string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}

	// Find first space to separate command from args
	spaceIndex := strings.IndexAny(line, " \t")
	if spaceIndex == -1 {
		return line, nil
	}

	cmd := line[:spaceIndex]
	argsStr := strings.TrimSpace(line[spaceIndex+1:])

	if argsStr == "" {
		return cmd, nil
	}

	var args []string
	var current strings.Builder
	inQuotes := false
	quoted := false
	quoteChar := byte(0)

	for i := 0; i < len(argsStr); i++ {
		char := argsStr[i]

		switch {
		case !inQuotes && (char == '"' || char == '\''):
			inQuotes = true
			quoted = true
			quoteChar = char
		case inQuotes && char == quoteChar:
			inQuotes = false
			quoteChar = 0
		case !inQuotes && (char == ' ' || char == '\t'):
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteByte(char)
		}
	}

	// Add final argument if any
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return cmd, args
}
