package tally

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAccumulator_Add(t *testing.T) {
	acc := NewAccumulator()

	e := acc.Add("/p/example.com/logs/2020-03/example.com", "example.com", "2020-03", 42)

	if e.Lines != 1 {
		t.Errorf("Expected 1 line, got %d", e.Lines)
	}
	if e.Bytes != 42 {
		t.Errorf("Expected 42 bytes, got %d", e.Bytes)
	}
	if e.Domain != "example.com" || e.Month != "2020-03" {
		t.Errorf("Unexpected entry %+v", e)
	}
}

func TestAccumulator_Add_Multiple(t *testing.T) {
	acc := NewAccumulator()

	acc.Add("f", "a.b", "2020-01", 10)
	acc.Add("f", "a.b", "2020-01", 5)
	e := acc.Add("f", "a.b", "2020-01", 1)

	if e.Lines != 3 {
		t.Errorf("Expected 3 lines, got %d", e.Lines)
	}
	if e.Bytes != 16 {
		t.Errorf("Expected 16 bytes, got %d", e.Bytes)
	}
}

func TestAccumulator_Concurrency(t *testing.T) {
	acc := NewAccumulator()

	var wg sync.WaitGroup
	iterations := 100

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				acc.Add("f", "a.b", "2020-01", 1)
			}
		}()
	}

	wg.Wait()

	e, ok := acc.Get("f")
	if !ok {
		t.Fatal("Expected entry, got none")
	}
	if e.Lines != int64(10*iterations) {
		t.Errorf("Expected %d lines, got %d", 10*iterations, e.Lines)
	}
}

func TestAccumulator_GetAll_ReplaceAll(t *testing.T) {
	acc := NewAccumulator()

	acc.Add("f1", "a.b", "2020-01", 1)
	acc.Add("f2", "c.d", "2020-02", 2)

	state := acc.GetAll()
	if len(state) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(state))
	}

	acc2 := NewAccumulator()
	acc2.ReplaceAll(state)

	e, ok := acc2.Get("f1")
	if !ok || e.Lines != 1 {
		t.Error("State was not properly restored")
	}

	e = acc2.Add("f2", "c.d", "2020-02", 3)
	if e.Lines != 2 || e.Bytes != 5 {
		t.Errorf("Expected restored counters to continue, got %+v", e)
	}
}

func TestAccumulator_List_Sorted(t *testing.T) {
	acc := NewAccumulator()
	acc.Add("b", "x.y", "2020-01", 1)
	acc.Add("a", "x.y", "2020-01", 1)

	list := acc.List()
	if len(list) != 2 || list[0].File != "a" || list[1].File != "b" {
		t.Errorf("Expected sorted list, got %+v", list)
	}
}

func TestAccumulator_EvictOldest(t *testing.T) {
	acc := NewAccumulator()
	acc.max = 3

	var evicted []Entry
	acc.OnEvict(func(e Entry) { evicted = append(evicted, e) })

	acc.Add("f1", "a.b", "2020-01", 1)
	acc.Add("f1", "a.b", "2020-01", 1)
	acc.Add("f2", "c.d", "2020-01", 1)
	acc.Add("f3", "e.f", "2020-01", 1)
	acc.Add("f1", "a.b", "2020-01", 1) // f1 is now the most recent
	acc.Add("f4", "g.h", "2020-01", 1)

	if _, ok := acc.Get("f2"); ok {
		t.Error("Expected f2 to be evicted")
	}
	if _, ok := acc.Get("f1"); !ok {
		t.Error("Expected recently written f1 to stay")
	}
	if len(evicted) != 1 || evicted[0].File != "f2" || evicted[0].Lines != 1 {
		t.Errorf("Expected f2 delta handed to hook, got %+v", evicted)
	}
}

func TestAccumulator_EvictAfterDrain(t *testing.T) {
	acc := NewAccumulator()
	acc.max = 1

	var evicted []Entry
	acc.OnEvict(func(e Entry) { evicted = append(evicted, e) })

	acc.Add("f1", "a.b", "2020-01", 1)
	acc.Drain()
	acc.Add("f2", "c.d", "2020-01", 1)

	if len(evicted) != 0 {
		t.Errorf("Expected no hook call for fully saved entry, got %+v", evicted)
	}
}

func TestAccumulator_Drain(t *testing.T) {
	acc := NewAccumulator()
	acc.ReplaceAll(map[string]Entry{
		"f1": {File: "f1", Lines: 10, Bytes: 100},
		"f2": {File: "f2", Lines: 3, Bytes: 30},
	})

	acc.Add("f1", "a.b", "2020-01", 7)
	acc.Add("f3", "c.d", "2020-01", 5)

	d := acc.Drain()
	if len(d) != 2 {
		t.Fatalf("Expected 2 changed entries, got %+v", d)
	}
	if d["f1"].Lines != 1 || d["f1"].Bytes != 7 {
		t.Errorf("Expected f1 delta 1/7, got %+v", d["f1"])
	}
	if d["f3"].Lines != 1 {
		t.Errorf("Expected f3 delta 1, got %+v", d["f3"])
	}

	e, _ := acc.Get("f1")
	if e.Lines != 11 {
		t.Errorf("Expected f1 total 11, got %d", e.Lines)
	}

	if d := acc.Drain(); len(d) != 0 {
		t.Errorf("Expected nothing left to drain, got %+v", d)
	}
}

func TestAccumulator_ReplaceAll_KeepsMostRecent(t *testing.T) {
	acc := NewAccumulator()
	acc.max = 2

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := make(map[string]Entry)
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("f%d", i)
		entries[name] = Entry{File: name, LastSeen: base.Add(time.Duration(i) * time.Minute)}
	}
	acc.ReplaceAll(entries)

	all := acc.GetAll()
	if len(all) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(all))
	}
	if _, ok := all["f3"]; !ok {
		t.Error("Expected newest entry f3 to be kept")
	}
	if _, ok := all["f0"]; ok {
		t.Error("Expected oldest entry f0 to be dropped")
	}

	acc.Add("new", "a.b", "2020-01", 1)
	if _, ok := acc.Get("f2"); ok {
		t.Error("Expected f2 to be evicted as least recent")
	}
}
