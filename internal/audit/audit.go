package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"unicode/utf8"

	"vhostlog/internal/types"
)

// MaxLineBytes caps how much of a rejected line is kept. A stream of huge
// garbage lines must not grow the reject log faster than the input.
const MaxLineBytes = 8192

// Logger appends rejected lines to a JSON lines file. The file is opened on
// the first reject and kept open until Close.
type Logger struct {
	mu       sync.Mutex
	filePath string
	f        *os.File
	enc      *json.Encoder
}

// NewLogger creates a new reject logger
func NewLogger(filePath string) *Logger {
	return &Logger{
		filePath: filePath,
	}
}

// LogReject writes a reject record in a thread-safe manner. Lines longer
// than MaxLineBytes are cut and flagged as truncated.
func (l *Logger) LogReject(rej types.Reject) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open reject log: %w", err)
		}
		l.f = f
		l.enc = json.NewEncoder(f)
	}

	if len(rej.Line) > MaxLineBytes {
		cut := MaxLineBytes
		for cut > 0 && !utf8.RuneStart(rej.Line[cut]) {
			cut--
		}
		rej.Line = rej.Line[:cut]
		rej.Truncated = true
	}

	if err := l.enc.Encode(rej); err != nil {
		return fmt.Errorf("failed to encode reject: %w", err)
	}

	return nil
}

// Close closes the reject log if it was opened
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	l.enc = nil
	return err
}
