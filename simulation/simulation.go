// Package simulation coordinates a benchmark run: it owns the registers and
// the log, runs the agents, drives termination and hands the ordered log to a
// sink.
package simulation

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sarchlab/snapbench/agent"
	"github.com/sarchlab/snapbench/config"
	"github.com/sarchlab/snapbench/datarecording"
	"github.com/sarchlab/snapbench/eventlog"
	"github.com/sarchlab/snapbench/register"
	"github.com/sarchlab/snapbench/report"
	"github.com/sarchlab/snapbench/timing"
)

// Result summarizes a finished run.
type Result struct {
	ID        string
	Elapsed   time.Duration
	Lines     []string
	Dropped   uint64
	Writes    uint64
	Snapshots int
	Retries   int
	Unclean   int
}

// A Simulation is a single benchmark run. It can be run once.
type Simulation struct {
	id     string
	config config.Config
	clock  timing.Clock
	state  atomic.Int32
	ran    atomic.Bool

	registers    *register.Array
	log          *eventlog.Log
	writers      []*agent.Writer
	snapshotters []*agent.Snapshotter
	stop         atomic.Bool

	recorder datarecording.DataRecorder
}

// ID returns the unique identifier of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the parameters the run was built with.
func (s *Simulation) Config() config.Config {
	return s.config
}

// State returns the current lifecycle state.
func (s *Simulation) State() State {
	return State(s.state.Load())
}

// StateName returns the name of the current state.
func (s *Simulation) StateName() string {
	return s.State().String()
}

// Registers returns the shared register array.
func (s *Simulation) Registers() *register.Array {
	return s.registers
}

// Log returns the shared event log.
func (s *Simulation) Log() *eventlog.Log {
	return s.log
}

// Writers returns the writer agents.
func (s *Simulation) Writers() []*agent.Writer {
	return s.writers
}

// Snapshotters returns the snapshot agents.
func (s *Simulation) Snapshotters() []*agent.Snapshotter {
	return s.snapshotters
}

func (s *Simulation) setState(state State) {
	s.state.Store(int32(state))
}

// Run starts every agent, waits for all snapshot agents to finish their
// snapshots, then tells the writers to stop and waits for them. Only after
// every agent has stopped is the log drained and handed to the sink. A
// snapshot agent that never finishes keeps the run going forever.
func (s *Simulation) Run(sink report.Sink) (Result, error) {
	if !s.ran.CompareAndSwap(false, true) {
		log.Panic("a simulation can only run once")
	}

	s.setState(Running)
	start := s.clock.Now()

	var writerWG, snapshotWG sync.WaitGroup

	for _, w := range s.writers {
		writerWG.Add(1)
		go func(w *agent.Writer) {
			defer writerWG.Done()
			w.Run(&s.stop)
		}(w)
	}

	for _, a := range s.snapshotters {
		snapshotWG.Add(1)
		go func(a *agent.Snapshotter) {
			defer snapshotWG.Done()
			a.Run()
		}(a)
	}

	snapshotWG.Wait()
	s.stop.Store(true)
	writerWG.Wait()

	elapsed := s.clock.Now().Sub(start)

	s.setState(Draining)
	lines := s.log.DrainSorted()
	result := s.summarize(elapsed, lines)

	if s.recorder != nil {
		s.record(result)
	}

	err := sink.WriteElapsed(elapsed)
	if err == nil {
		err = sink.WriteLines(lines)
	}

	s.setState(Done)

	return result, errors.Wrap(err, "reporting run")
}

func (s *Simulation) summarize(elapsed time.Duration, lines []string) Result {
	r := Result{
		ID:      s.id,
		Elapsed: elapsed,
		Lines:   lines,
		Dropped: s.log.Dropped(),
	}

	for _, w := range s.writers {
		r.Writes += w.Writes()
	}

	for _, a := range s.snapshotters {
		r.Snapshots += a.Completed()
		r.Retries += a.Retries()
		r.Unclean += a.Unclean()
	}

	return r
}

// Terminate flushes and closes the recorder, if any.
func (s *Simulation) Terminate() error {
	if s.recorder == nil {
		return nil
	}

	return s.recorder.Close()
}
