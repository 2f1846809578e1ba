package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var (
	errorColor  = color.New(color.FgRed)
	promptColor = color.New(color.FgCyan)
)

// Run executes one command per line read from r, writing outputs to w,
// until input ends or a command quits. With echo set every command is
// printed after the prompt first, as when replaying a script. Blank lines
// and lines starting with '#' are skipped.
func (s *Shell) Run(r io.Reader, w io.Writer, echo bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if echo {
			promptColor.Fprint(w, s.Prompt())
			fmt.Fprintln(w, line)
		}

		result := s.Execute(line)
		writeResult(w, result)
		if result.Quit {
			logger.Debug("Session %s quit", s.sessionID)
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read commands")
	}
	return nil
}

func writeResult(w io.Writer, result Result) {
	if result.Output == "" {
		return
	}
	output := strings.TrimSuffix(result.Output, "\n")
	if result.IsErr() {
		errorColor.Fprintln(w, output)
		return
	}
	fmt.Fprintln(w, output)
}
