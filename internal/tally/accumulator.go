// Package tally keeps running counters per destination log file.
package tally

import (
	"container/list"
	"sort"
	"sync"
	"time"
)

// Entry is the running state of one destination file
type Entry struct {
	File      string    `json:"file"`
	Domain    string    `json:"domain"`
	Month     string    `json:"month"`
	Lines     int64     `json:"lines"`
	Bytes     int64     `json:"bytes"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// MaxTrackedFiles bounds memory when a stream touches very many domains
const MaxTrackedFiles = 50000

type tracked struct {
	Entry
	// counts already handed out by Drain or restored by ReplaceAll
	savedLines int64
	savedBytes int64
}

func (t *tracked) delta() (Entry, bool) {
	d := t.Entry
	d.Lines -= t.savedLines
	d.Bytes -= t.savedBytes
	return d, d.Lines != 0 || d.Bytes != 0
}

// Accumulator tracks routed lines per destination file. Once
// MaxTrackedFiles is reached the least recently written file is evicted;
// its unsaved counts go to the eviction hook if one is set.
type Accumulator struct {
	mu      sync.Mutex
	entries map[string]*list.Element // of *tracked
	lru     *list.List               // front is most recently written
	now     func() time.Time
	onEvict func(Entry)
	max     int
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
		max:     MaxTrackedFiles,
	}
}

// OnEvict sets fn to receive the unsaved counts of evicted files. fn is
// called without the accumulator lock held.
func (a *Accumulator) OnEvict(fn func(Entry)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEvict = fn
}

// Add records one line of n bytes appended to file
func (a *Accumulator) Add(file, domain, month string, n int) Entry {
	a.mu.Lock()

	var evicted *tracked
	el, exists := a.entries[file]
	if exists {
		a.lru.MoveToFront(el)
	} else {
		if a.lru.Len() >= a.max {
			evicted = a.removeOldest()
		}
		el = a.lru.PushFront(&tracked{Entry: Entry{
			File:      file,
			Domain:    domain,
			Month:     month,
			FirstSeen: a.now(),
		}})
		a.entries[file] = el
	}

	t := el.Value.(*tracked)
	t.Lines++
	t.Bytes += int64(n)
	t.LastSeen = a.now()
	e := t.Entry
	hook := a.onEvict

	a.mu.Unlock()

	if evicted != nil && hook != nil {
		if d, ok := evicted.delta(); ok {
			hook(d)
		}
	}
	return e
}

// Get returns a copy of the entry for file
func (a *Accumulator) Get(file string) (Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if el, ok := a.entries[file]; ok {
		return el.Value.(*tracked).Entry, true
	}
	return Entry{}, false
}

// GetAll returns a snapshot of every entry keyed by file
func (a *Accumulator) GetAll() map[string]Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]Entry, len(a.entries))
	for k, el := range a.entries {
		out[k] = el.Value.(*tracked).Entry
	}
	return out
}

// List returns every entry sorted by file path
func (a *Accumulator) List() []Entry {
	all := a.GetAll()
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// Drain returns the counts added since the previous Drain (or since the
// entries were restored) and marks them saved. Lines and Bytes of the
// returned entries are deltas; the timestamps are the current ones.
func (a *Accumulator) Drain() map[string]Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]Entry)
	for k, el := range a.entries {
		t := el.Value.(*tracked)
		if d, ok := t.delta(); ok {
			out[k] = d
			t.savedLines = t.Lines
			t.savedBytes = t.Bytes
		}
	}
	return out
}

// ReplaceAll swaps in previously saved state. Restored counts are treated
// as already saved. If there are more than the tracking limit, only the
// most recently written files are kept.
func (a *Accumulator) ReplaceAll(entries map[string]Entry) {
	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LastSeen.After(sorted[j].LastSeen) })

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(sorted) > a.max {
		sorted = sorted[:a.max]
	}
	a.entries = make(map[string]*list.Element, len(sorted))
	a.lru = list.New()
	for _, e := range sorted {
		a.entries[e.File] = a.lru.PushBack(&tracked{
			Entry:      e,
			savedLines: e.Lines,
			savedBytes: e.Bytes,
		})
	}
}

// removeOldest drops the least recently written entry.
// Caller must hold lock.
func (a *Accumulator) removeOldest() *tracked {
	el := a.lru.Back()
	if el == nil {
		return nil
	}
	a.lru.Remove(el)
	t := el.Value.(*tracked)
	delete(a.entries, t.File)
	return t
}
