// Package logger provides the leveled logger shared by the scheduler, the
// notification sink and the command wiring. The terminal belongs to the UI,
// so the standard implementation writes to a file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

type Logger interface {
	Info(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	Close() error
}

type StandardLogger struct {
	logger *log.Logger
	closer io.Closer
}

func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// OpenFile appends to the log file at path, creating parent directories.
func OpenFile(path string) (*StandardLogger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &StandardLogger{
		logger: log.New(f, "mindsync ", log.LstdFlags|log.Lmicroseconds),
		closer: f,
	}, nil
}

func (s *StandardLogger) Info(format string, args ...any) {
	s.logger.Printf("[INFO] "+format, args...)
}

func (s *StandardLogger) Warning(format string, args ...any) {
	s.logger.Printf("[WARNING] "+format, args...)
}

func (s *StandardLogger) Error(format string, args ...any) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close releases the underlying file, if any. Safe to call twice.
func (s *StandardLogger) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

type NopLogger struct{}

func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Info(format string, args ...any)    {}
func (n *NopLogger) Warning(format string, args ...any) {}
func (n *NopLogger) Error(format string, args ...any)   {}
func (n *NopLogger) Close() error                       { return nil }
