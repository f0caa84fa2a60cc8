package simulation

import (
	"github.com/sarchlab/snapbench/agent"
	"github.com/sarchlab/snapbench/hooking"
)

const (
	runTable      = "runs"
	snapshotTable = "snapshots"
	lineTable     = "log_lines"
)

type runEntry struct {
	ID              string
	NumWriters      int
	NumSnapshotters int
	NumRegisters    int
	WriterMeanDelay float64
	SnapMeanDelay   float64
	NumSnapshots    int
	DelayUnitSec    float64
	SnapshotMode    string
	ElapsedSec      float64
	Writes          uint64
	Snapshots       int
	Dropped         uint64
}

type snapshotEntry struct {
	RunID      string
	Agent      int
	Iteration  int
	UnixNano   int64
	ElapsedSec float64
	Attempts   int
	Clean      bool
	Values     string
}

type lineEntry struct {
	RunID    string
	Seq      int
	UnixNano int64
	Message  string
}

func (s *Simulation) createTables() {
	s.recorder.CreateTable(runTable, runEntry{})
	s.recorder.CreateTable(snapshotTable, snapshotEntry{})
	s.recorder.CreateTable(lineTable, lineEntry{})

	hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
		if ctx.Pos != agent.HookPosSnapshotDone {
			return
		}

		r := ctx.Item.(agent.SnapshotRecord)
		s.recorder.InsertData(snapshotTable, snapshotEntry{
			RunID:      s.id,
			Agent:      r.Agent,
			Iteration:  r.Iteration,
			UnixNano:   r.Time.UnixNano(),
			ElapsedSec: r.Elapsed.Seconds(),
			Attempts:   r.Attempts,
			Clean:      r.Clean,
			Values:     r.Snapshot.String(),
		})
	})

	for _, a := range s.snapshotters {
		a.AcceptHook(hook)
	}
}

func (s *Simulation) record(result Result) {
	for i, e := range s.log.Entries() {
		s.recorder.InsertData(lineTable, lineEntry{
			RunID:    s.id,
			Seq:      i,
			UnixNano: e.Time.UnixNano(),
			Message:  e.Message,
		})
	}

	c := s.config
	s.recorder.InsertData(runTable, runEntry{
		ID:              s.id,
		NumWriters:      c.NumWriters,
		NumSnapshotters: c.NumSnapshotters,
		NumRegisters:    c.NumRegisters,
		WriterMeanDelay: c.WriterMeanDelay,
		SnapMeanDelay:   c.SnapMeanDelay,
		NumSnapshots:    c.NumSnapshots,
		DelayUnitSec:    c.DelayUnit.Seconds(),
		SnapshotMode:    string(c.SnapshotMode),
		ElapsedSec:      result.Elapsed.Seconds(),
		Writes:          result.Writes,
		Snapshots:       result.Snapshots,
		Dropped:         result.Dropped,
	})

	s.recorder.Flush()
}
