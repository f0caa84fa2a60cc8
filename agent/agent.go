// Package agent implements the writer and snapshot agents. Each agent runs on
// its own goroutine and owns its configuration and random generator; the
// register array and the event log are shared.
package agent

import (
	"github.com/sarchlab/snapbench/eventlog"
	"github.com/sarchlab/snapbench/hooking"
	"github.com/sarchlab/snapbench/register"
)

// HookPosWriteDone marks a writer iteration that has written and logged. The
// item is a WriteRecord.
var HookPosWriteDone = &hooking.HookPos{Name: "Write Done"}

// HookPosSnapshotBegin marks a snapshot iteration about to collect. The item
// is the iteration number.
var HookPosSnapshotBegin = &hooking.HookPos{Name: "Snapshot Begin"}

// HookPosSnapshotDone marks a snapshot iteration that has collected and
// logged. The item is a SnapshotRecord.
var HookPosSnapshotDone = &hooking.HookPos{Name: "Snapshot Done"}

// ValueRange bounds the values writers store: every value is in
// [0, ValueRange).
const ValueRange = 100

// RegisterWriter is the part of the register array a writer needs.
type RegisterWriter interface {
	Size() int
	Write(index, value int)
}

// Appender accepts log entries. A false return means the entry was dropped.
type Appender interface {
	Append(e eventlog.Entry) bool
}

// A Collector captures a view of all the registers.
type Collector interface {
	Collect() (snapshot register.Snapshot, attempts int, clean bool)
}

// SinglePassCollector reads each register once, in index order.
type SinglePassCollector struct {
	Registers *register.Array
}

// Collect returns a possibly torn view after a single pass.
func (c SinglePassCollector) Collect() (register.Snapshot, int, bool) {
	return c.Registers.ReadAll(), 1, true
}

// DoubleCollector retries collects until two in a row agree.
type DoubleCollector struct {
	Registers   *register.Array
	MaxAttempts int
}

// Collect returns a consistent view unless the attempt bound was hit.
func (c DoubleCollector) Collect() (register.Snapshot, int, bool) {
	return c.Registers.DoubleCollect(c.MaxAttempts)
}
