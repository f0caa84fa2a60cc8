// Package eventlog provides the bounded, thread-safe, append-only log that
// agents write into and that is drained once, in timestamp order, at the end
// of a run.
package eventlog

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sarchlab/snapbench/hooking"
	"golang.org/x/exp/slices"
)

// HookPosAppend marks an entry accepted into the log.
var HookPosAppend = &hooking.HookPos{Name: "Log Append"}

// HookPosDrop marks an entry discarded because the log is full.
var HookPosDrop = &hooking.HookPos{Name: "Log Drop"}

// DefaultCapacity is the number of entries a log keeps unless told otherwise.
const DefaultCapacity = 100000

// OverflowPolicy decides what happens to an append that finds the log full.
type OverflowPolicy int

// Overflow policies.
const (
	// Drop silently discards entries beyond capacity.
	Drop OverflowPolicy = iota
	// Grow treats the capacity as an initial size and never discards.
	Grow
)

func (p OverflowPolicy) String() string {
	switch p {
	case Drop:
		return "drop"
	case Grow:
		return "grow"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy converts "drop" or "grow" into an OverflowPolicy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "drop":
		return Drop, nil
	case "grow":
		return Grow, nil
	default:
		return Drop, errors.Errorf("unknown overflow policy %q", s)
	}
}

// An Entry is a message together with the time it was produced.
type Entry struct {
	Time    time.Time
	Message string
}

// A Log collects entries from many goroutines. Appends are serialized by a
// mutex. The insertion order does not need to match the timestamp order.
type Log struct {
	hooking.HookableBase

	lock     sync.Mutex
	name     string
	capacity int
	policy   OverflowPolicy
	entries  []Entry
	dropped  uint64
}

// New creates an empty log.
func New(name string, capacity int, policy OverflowPolicy) *Log {
	if capacity <= 0 {
		log.Panicf("log capacity must be positive, got %d", capacity)
	}

	initial := capacity
	if initial > 1024 {
		initial = 1024
	}

	return &Log{
		name:     name,
		capacity: capacity,
		policy:   policy,
		entries:  make([]Entry, 0, initial),
	}
}

// Name returns the name of the log.
func (l *Log) Name() string {
	return l.name
}

// Capacity returns the configured capacity.
func (l *Log) Capacity() int {
	return l.capacity
}

// Policy returns the overflow policy.
func (l *Log) Policy() OverflowPolicy {
	return l.policy
}

// Append stores an entry. It reports false, without error, when the entry
// was discarded because the log is full.
func (l *Log) Append(e Entry) bool {
	l.lock.Lock()
	accepted := l.policy == Grow || len(l.entries) < l.capacity
	if accepted {
		l.entries = append(l.entries, e)
	} else {
		l.dropped++
	}
	l.lock.Unlock()

	if l.NumHooks() > 0 {
		pos := HookPosAppend
		if !accepted {
			pos = HookPosDrop
		}

		l.InvokeHook(hooking.HookCtx{
			Domain: l,
			Pos:    pos,
			Item:   e,
		})
	}

	return accepted
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return len(l.entries)
}

// Dropped returns how many entries were discarded.
func (l *Log) Dropped() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.dropped
}

// Entries sorts the stored entries by ascending time, keeping the insertion
// order among equal times, and returns a copy of them.
func (l *Log) Entries() []Entry {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.sortEntries()

	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)

	return entries
}

// DrainSorted returns the stored messages ordered by ascending time, stable
// on ties. It must only be called once every appender has stopped. The log
// keeps its entries, so draining again yields the same sequence.
func (l *Log) DrainSorted() []string {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.sortEntries()

	messages := make([]string, len(l.entries))
	for i, e := range l.entries {
		messages[i] = e.Message
	}

	return messages
}

func (l *Log) sortEntries() {
	slices.SortStableFunc(l.entries, func(a, b Entry) int {
		return a.Time.Compare(b.Time)
	})
}
