package agent

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sarchlab/snapbench/eventlog"
	"github.com/sarchlab/snapbench/hooking"
	"github.com/sarchlab/snapbench/register"
	"github.com/sarchlab/snapbench/timing"
)

// SnapshotRecord describes one completed snapshot.
type SnapshotRecord struct {
	Agent     int
	Iteration int
	Snapshot  register.Snapshot
	Elapsed   time.Duration
	Attempts  int
	Clean     bool
	Time      time.Time
}

// A Snapshotter collects a fixed number of snapshots, logging each one with
// the time it took.
type Snapshotter struct {
	hooking.HookableBase

	name      string
	ID        int
	MeanDelay float64
	K         int

	collector Collector
	log       Appender
	clock     timing.Clock
	sampler   timing.Sampler

	completed atomic.Int64
	retries   atomic.Int64
	unclean   atomic.Int64
}

// Name returns the name of the snapshotter.
func (s *Snapshotter) Name() string {
	return s.name
}

// Completed returns how many snapshots have been taken so far.
func (s *Snapshotter) Completed() int {
	return int(s.completed.Load())
}

// Retries returns the number of collects beyond the first one for every
// snapshot, summed.
func (s *Snapshotter) Retries() int {
	return int(s.retries.Load())
}

// Unclean returns how many snapshots gave up before two collects agreed.
func (s *Snapshotter) Unclean() int {
	return int(s.unclean.Load())
}

// SnapshotterStatus is a point-in-time view of a snapshot agent.
type SnapshotterStatus struct {
	Name      string
	ID        int
	MeanDelay float64
	K         int
	Completed int
	Retries   int
	Unclean   int
}

// Status returns the agent's current progress.
func (s *Snapshotter) Status() any {
	return SnapshotterStatus{
		Name:      s.name,
		ID:        s.ID,
		MeanDelay: s.MeanDelay,
		K:         s.K,
		Completed: s.Completed(),
		Retries:   s.Retries(),
		Unclean:   s.Unclean(),
	}
}

// Run takes K snapshots, sleeping after each one, including the last.
func (s *Snapshotter) Run() {
	for i := 0; i < s.K; i++ {
		s.step(i)
	}
}

func (s *Snapshotter) step(iteration int) {
	if s.NumHooks() > 0 {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosSnapshotBegin,
			Item:   iteration,
		})
	}

	begin := s.clock.Now()
	snapshot, attempts, clean := s.collector.Collect()
	end := s.clock.Now()
	elapsed := end.Sub(begin)

	s.log.Append(eventlog.Entry{
		Time: end,
		Message: fmt.Sprintf("Thread %d's snapshot: %s which finished in %s seconds at %s",
			s.ID, snapshot, eventlog.FormatSeconds(elapsed),
			eventlog.FormatTimestamp(end)),
	})

	s.completed.Add(1)
	s.retries.Add(int64(attempts - 1))
	if !clean {
		s.unclean.Add(1)
	}

	if s.NumHooks() > 0 {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosSnapshotDone,
			Item: SnapshotRecord{
				Agent:     s.ID,
				Iteration: iteration,
				Snapshot:  snapshot,
				Elapsed:   elapsed,
				Attempts:  attempts,
				Clean:     clean,
				Time:      end,
			},
		})
	}

	s.clock.Sleep(s.sampler.Sample(s.MeanDelay))
}
