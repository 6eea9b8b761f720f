// Package pipeline drives lines from an ingester through the router. A bad
// line is reported and skipped; it never stops the stream.
package pipeline

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"vhostlog/internal/decode"
	"vhostlog/internal/ingest"
	"vhostlog/internal/metrics"
	"vhostlog/internal/parser"
	"vhostlog/internal/route"
	"vhostlog/internal/tally"
	"vhostlog/internal/types"
)

// RejectLogger records lines that failed to route
type RejectLogger interface {
	LogReject(rej types.Reject) error
}

// Options tunes a Driver. Zero values are usable.
type Options struct {
	// Workers > 1 routes lines concurrently. Lines are sharded by domain,
	// so each destination file still receives its lines in stream order.
	Workers int
	Tally   *tally.Accumulator
	Rejects RejectLogger
}

// Summary counts what happened to the lines of one run
type Summary struct {
	Read      int64
	Routed    int64
	Discarded int64
	Failed    int64
}

// Driver routes a stream of log lines
type Driver struct {
	router *route.Router
	opts   Options

	read      atomic.Int64
	routed    atomic.Int64
	discarded atomic.Int64
	failed    atomic.Int64
}

// NewDriver creates a driver feeding router
func NewDriver(router *route.Router, opts Options) *Driver {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Driver{
		router: router,
		opts:   opts,
	}
}

// Run consumes lines until the channel is closed and every line has been
// handled.
func (d *Driver) Run(lines <-chan ingest.LogLine) Summary {
	if d.opts.Workers == 1 {
		for l := range lines {
			d.Process(l.Content)
		}
		return d.Summary()
	}

	shards := make([]chan string, d.opts.Workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan string, 64)
		wg.Add(1)
		go func(in <-chan string) {
			defer wg.Done()
			for line := range in {
				d.Process(line)
			}
		}(shards[i])
	}

	for l := range lines {
		domain, _, _ := route.Fields(l.Content)
		shard := xxhash.Sum64String(domain) % uint64(len(shards))
		shards[shard] <- l.Content
	}

	for _, ch := range shards {
		close(ch)
	}
	wg.Wait()

	return d.Summary()
}

// Process routes a single line and accounts for the outcome
func (d *Driver) Process(line string) {
	d.read.Add(1)
	metrics.LinesRead.Inc()

	dest, err := d.router.Route(line)
	if err != nil {
		d.failed.Add(1)
		d.reject(line, err)
		return
	}
	if dest == nil {
		d.discarded.Add(1)
		metrics.LinesDiscarded.Inc()
		return
	}

	d.routed.Add(1)
	metrics.LinesRouted.Inc()
	metrics.BytesWritten.Add(float64(dest.Bytes))
	if d.opts.Tally != nil {
		d.opts.Tally.Add(dest.File, dest.Domain, dest.Month, dest.Bytes)
	}
}

func (d *Driver) reject(line string, err error) {
	kind := Classify(err)
	metrics.LineErrors.WithLabelValues(string(kind)).Inc()

	if kind == types.RejectWrite {
		log.Printf("[WRITE] Failed to store access log entry: %v", err)
	} else {
		log.Printf("[ROUTE] Failed to process access log entry: %v", err)
	}

	if d.opts.Rejects == nil {
		return
	}
	rej := types.Reject{
		Time:  time.Now(),
		Kind:  kind,
		Error: err.Error(),
		Line:  line,
	}
	if err := d.opts.Rejects.LogReject(rej); err != nil {
		log.Printf("Failed to write to reject log: %v", err)
	}
}

// Summary returns the counters accumulated so far
func (d *Driver) Summary() Summary {
	return Summary{
		Read:      d.read.Load(),
		Routed:    d.routed.Load(),
		Discarded: d.discarded.Load(),
		Failed:    d.failed.Load(),
	}
}

// Classify maps a routing error to its reject kind
func Classify(err error) types.RejectKind {
	var pe *decode.ParseError
	var we *route.WriteError

	switch {
	case errors.As(err, &we):
		return types.RejectWrite
	case errors.Is(err, parser.ErrNoTimestamp):
		return types.RejectNoTimestamp
	case errors.Is(err, parser.ErrIncompleteTimestamp):
		return types.RejectIncompleteTimestamp
	case errors.Is(err, parser.ErrMalformedTimestamp):
		return types.RejectMalformedTimestamp
	case errors.As(err, &pe):
		return types.RejectParse
	default:
		return types.RejectUnknown
	}
}
