package agent

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sarchlab/snapbench/eventlog"
	"github.com/sarchlab/snapbench/hooking"
	"github.com/sarchlab/snapbench/timing"
	"golang.org/x/exp/rand"
)

// WriteRecord describes one completed write.
type WriteRecord struct {
	Writer int
	Index  int
	Value  int
	Time   time.Time
}

// A Writer keeps overwriting random registers with random values until it is
// told to stop.
type Writer struct {
	hooking.HookableBase

	name      string
	ID        int
	MeanDelay float64

	registers RegisterWriter
	log       Appender
	clock     timing.Clock
	sampler   timing.Sampler
	rng       *rand.Rand

	writes atomic.Uint64
}

// Name returns the name of the writer.
func (w *Writer) Name() string {
	return w.name
}

// Writes returns the number of completed writes.
func (w *Writer) Writes() uint64 {
	return w.writes.Load()
}

// WriterStatus is a point-in-time view of a writer.
type WriterStatus struct {
	Name      string
	ID        int
	MeanDelay float64
	Writes    uint64
}

// Status returns the writer's current progress.
func (w *Writer) Status() any {
	return WriterStatus{
		Name:      w.name,
		ID:        w.ID,
		MeanDelay: w.MeanDelay,
		Writes:    w.Writes(),
	}
}

// Run loops until stop is set. The flag is checked once per iteration, before
// the write; a sleep in progress is never cut short.
func (w *Writer) Run(stop *atomic.Bool) {
	for !stop.Load() {
		w.step()
	}
}

func (w *Writer) step() {
	value := w.rng.Intn(ValueRange)
	index := w.rng.Intn(w.registers.Size())

	w.registers.Write(index, value)

	now := w.clock.Now()
	w.log.Append(eventlog.Entry{
		Time: now,
		Message: fmt.Sprintf("Thread %d wrote %d on location %d at %s",
			w.ID, value, index, eventlog.FormatTimestamp(now)),
	})
	w.writes.Add(1)

	if w.NumHooks() > 0 {
		w.InvokeHook(hooking.HookCtx{
			Domain: w,
			Pos:    HookPosWriteDone,
			Item: WriteRecord{
				Writer: w.ID,
				Index:  index,
				Value:  value,
				Time:   now,
			},
		})
	}

	w.clock.Sleep(w.sampler.Sample(w.MeanDelay))
}
