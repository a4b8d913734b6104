package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Logger provides structured, leveled logging throughout the application.
// One Logger is created per invocation and passed into every component.
type Logger struct {
	info *log.Logger
	warn *log.Logger
	err  *log.Logger

	file *os.File
}

// NewLogger creates a Logger writing to stdout/stderr only.
func NewLogger() *Logger {
	return &Logger{
		info: log.New(os.Stdout, "", 0),
		warn: log.New(os.Stdout, "", 0),
		err:  log.New(os.Stderr, "", 0),
	}
}

// NewFileLogger creates a Logger that appends to the given log file in
// addition to stdout/stderr. Intermediate directories are created
// automatically.
func NewFileLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file %q: %w", path, err)
	}

	return &Logger{
		info: log.New(io.MultiWriter(os.Stdout, f), "", 0),
		warn: log.New(io.MultiWriter(os.Stdout, f), "", 0),
		err:  log.New(io.MultiWriter(os.Stderr, f), "", 0),
		file: f,
	}, nil
}

// Close releases the underlying log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(fmt.Sprintf("[%s] INFO  %s", l.timestamp(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(fmt.Sprintf("[%s] WARN  %s", l.timestamp(), format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(fmt.Sprintf("[%s] ERROR %s", l.timestamp(), format), args...)
}
