package ingest

import (
	"bufio"
	"errors"
	"io"
	"log"
	"strings"
	"time"
)

// ReaderIngester reads newline delimited lines from a stream such as stdin
// until EOF. Lines of any length are supported.
type ReaderIngester struct {
	name string
	r    io.Reader
	done chan struct{}
}

// NewReaderIngester creates an ingester reading from r; name is reported as
// the line source.
func NewReaderIngester(name string, r io.Reader) *ReaderIngester {
	return &ReaderIngester{
		name: name,
		r:    r,
		done: make(chan struct{}),
	}
}

// Start launches the reader. The returned channel is closed at end of input
// or after Stop, whichever comes first.
func (i *ReaderIngester) Start() (<-chan LogLine, error) {
	out := make(chan LogLine)
	raw := make(chan string)

	// reads on stdin cannot be interrupted, so the read loop may outlive Stop
	go func() {
		defer close(raw)
		br := bufio.NewReader(i.r)
		for {
			line, err := br.ReadString('\n')
			if len(line) > 0 {
				select {
				case raw <- strings.TrimSuffix(line, "\n"):
				case <-i.done:
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Printf("[INGEST] Read error on %s: %v", i.name, err)
				}
				return
			}
		}
	}()

	go func() {
		defer close(out)
		for {
			select {
			case line, ok := <-raw:
				if !ok {
					return
				}
				select {
				case out <- LogLine{
					Source:    i.name,
					Timestamp: time.Now().Unix(),
					Content:   line,
				}:
				case <-i.done:
					return
				}
			case <-i.done:
				return
			}
		}
	}()

	return out, nil
}

// Stop closes the output channel without waiting for a pending read.
func (i *ReaderIngester) Stop() error {
	select {
	case <-i.done:
	default:
		close(i.done)
	}
	return nil
}
