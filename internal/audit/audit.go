// Package audit appends one CSV row per shell action to a log file.
package audit

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"vshell/internal/logging"

	"github.com/pkg/errors"
)

var (
	logger = logging.GetLogger().WithPrefix("audit")
)

// Recorder is the sink the shell reports actions to.
type Recorder interface {
	Record(action, details string) error
}

// Log appends rows of (timestamp, action, details) to a CSV file. The file
// is opened per row, so rows written before a crash stay on disk.
type Log struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewLog creates a recorder appending to path. The file is created on the
// first record.
func NewLog(path string) *Log {
	logger.Debug("Audit log path: %s", path)
	return &Log{path: path, now: time.Now}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Record appends a row for action.
func (l *Log) Record(action, details string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to open audit log %s", l.path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{l.now().Format(time.RFC3339Nano), action, details}); err != nil {
		return errors.Wrap(err, "failed to write audit row")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush audit row")
	}

	logger.Trace("Recorded %s: %q", action, details)
	return nil
}

// Discard drops every record.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(string, string) error { return nil }
