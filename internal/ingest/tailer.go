package ingest

import (
	"fmt"
	"io"
	"log"

	"github.com/nxadm/tail"
)

// LogLine represents a raw line from a log source
type LogLine struct {
	Source    string
	Timestamp int64 // wall clock arrival
	Content   string
}

// Ingester defines the interface for log sources
type Ingester interface {
	Start() (<-chan LogLine, error)
	Stop() error
}

// FileTailer follows a growing access log file
type FileTailer struct {
	path    string
	fromEnd bool
	t       *tail.Tail
}

// NewFileTailer creates a new tailer for a path. With fromEnd set, lines
// already in the file are skipped and only new ones are delivered.
func NewFileTailer(path string, fromEnd bool) *FileTailer {
	return &FileTailer{
		path:    path,
		fromEnd: fromEnd,
	}
}

// Start begins tailing the file and returns a channel of lines. The channel
// is closed after Stop.
func (f *FileTailer) Start() (<-chan LogLine, error) {
	// follow, reopen on rotate
	config := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	}
	if f.fromEnd {
		config.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	log.Printf("[INGEST] Following %s (waiting if not present)", f.path)

	t, err := tail.TailFile(f.path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to tail file %s: %w", f.path, err)
	}
	f.t = t

	out := make(chan LogLine)

	go func() {
		defer close(out)
		for line := range t.Lines {
			if line.Err != nil {
				// rotation noise, not worth a log line each time
				continue
			}
			out <- LogLine{
				Source:    f.path,
				Timestamp: line.Time.Unix(),
				Content:   line.Text,
			}
		}
	}()

	return out, nil
}

// Stop stops the tailing
func (f *FileTailer) Stop() error {
	if f.t != nil {
		err := f.t.Stop()
		f.t.Cleanup()
		return err
	}
	return nil
}
