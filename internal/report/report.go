// Package report handles the run log and end-of-run persistence. The
// conversion core never logs; the command layer feeds outcomes here.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes timestamped, leveled lines to an optional file sink, and
// errors additionally to stderr. The progress TUI owns stdout during a
// run, so regular lines go to the file only.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger opens logFile for appending. An empty path disables the sink.
func NewLogger(logFile string) (*Logger, error) {
	l := &Logger{}
	if logFile == "" {
		return l, nil
	}
	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	l.file = f
	return l, nil
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level, text string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	entry := ts + " [" + level + "] " + text + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	if level == "ERROR" {
		_, _ = io.WriteString(os.Stderr, entry)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, entry)
	}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) {
	l.line("INFO", fmt.Sprintf(format, args...))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...any) {
	l.line("WARN", fmt.Sprintf(format, args...))
}

// Error logs at ERROR level, also to stderr.
func (l *Logger) Error(format string, args ...any) {
	l.line("ERROR", fmt.Sprintf(format, args...))
}
