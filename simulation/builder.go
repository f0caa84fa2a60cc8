package simulation

import (
	"fmt"
	"log"

	"github.com/rs/xid"
	"github.com/sarchlab/snapbench/agent"
	"github.com/sarchlab/snapbench/config"
	"github.com/sarchlab/snapbench/datarecording"
	"github.com/sarchlab/snapbench/eventlog"
	"github.com/sarchlab/snapbench/hooking"
	"github.com/sarchlab/snapbench/monitoring"
	"github.com/sarchlab/snapbench/register"
	"github.com/sarchlab/snapbench/timing"
)

// Builder can be used to build a simulation.
type Builder struct {
	config   config.Config
	clock    timing.Clock
	monitor  *monitoring.Monitor
	recorder datarecording.DataRecorder
	logger   *log.Logger
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		config: config.Default(),
		clock:  timing.WallClock{},
	}
}

// WithConfig sets the run parameters.
func (b Builder) WithConfig(c config.Config) Builder {
	b.config = c
	return b
}

// WithClock replaces the wall clock used by the coordinator and the agents.
func (b Builder) WithClock(c timing.Clock) Builder {
	b.clock = c
	return b
}

// WithMonitor exposes the simulation through a monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithDataRecorder records the run into the given recorder.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithLogger prints every agent event to the logger.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) parametersMustBeValid() {
	if err := b.config.Validate(); err != nil {
		panic(err)
	}
}

// Build allocates the registers and the log and describes every agent. No
// agent runs before Simulation.Run.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	c := b.config
	s := &Simulation{
		id:        xid.New().String(),
		config:    c,
		clock:     b.clock,
		registers: register.NewArray("Registers", c.NumRegisters),
		log:       eventlog.New("Log", c.LogCapacity, c.Overflow),
		recorder:  b.recorder,
	}

	base := timing.BaseSeed(c.Seed)

	for i := 0; i < c.NumWriters; i++ {
		w := agent.MakeWriterBuilder().
			WithID(i).
			WithMeanDelay(c.WriterMeanDelay).
			WithDelayUnit(c.DelayUnit).
			WithSeed(timing.SeedFor(base, uint64(i))).
			WithRegisters(s.registers).
			WithLog(s.log).
			WithClock(b.clock).
			Build(fmt.Sprintf("Writer[%d]", i))
		s.writers = append(s.writers, w)
	}

	collector := b.collector(s.registers)
	for i := 0; i < c.NumSnapshotters; i++ {
		a := agent.MakeSnapshotterBuilder().
			WithID(i).
			WithMeanDelay(c.SnapMeanDelay).
			WithDelayUnit(c.DelayUnit).
			WithNumSnapshots(c.NumSnapshots).
			WithSeed(timing.SeedFor(base, uint64(c.NumWriters+i))).
			WithCollector(collector).
			WithLog(s.log).
			WithClock(b.clock).
			Build(fmt.Sprintf("Snapshotter[%d]", i))
		s.snapshotters = append(s.snapshotters, a)
	}

	if b.logger != nil {
		b.attachLogger(s)
	}

	if b.monitor != nil {
		b.attachMonitor(s)
	}

	if b.recorder != nil {
		s.createTables()
	}

	return s
}

func (b Builder) collector(registers *register.Array) agent.Collector {
	if b.config.SnapshotMode == config.DoubleCollect {
		return agent.DoubleCollector{
			Registers:   registers,
			MaxAttempts: b.config.MaxCollectAttempts,
		}
	}

	return agent.SinglePassCollector{Registers: registers}
}

func (b Builder) attachLogger(s *Simulation) {
	hook := hooking.NewLogHook(b.logger)

	s.registers.AcceptHook(hook)
	s.log.AcceptHook(hook)

	for _, w := range s.writers {
		w.AcceptHook(hook)
	}

	for _, a := range s.snapshotters {
		a.AcceptHook(hook)
	}
}

func (b Builder) attachMonitor(s *Simulation) {
	m := b.monitor

	m.RegisterRegisters(s.registers)
	m.RegisterLog(s.log)
	m.RegisterStateTeller(s)

	for _, w := range s.writers {
		m.RegisterAgent(w)
	}

	for _, a := range s.snapshotters {
		m.RegisterAgent(a)

		if a.K == 0 {
			continue
		}

		a.AcceptHook(progressHook(m, m.CreateProgressBar(a.Name(), uint64(a.K)), a.K))
	}
}

// progressHook moves a snapshot agent's bar along and removes the bar once
// the agent has taken all k snapshots.
func progressHook(
	m *monitoring.Monitor,
	bar *monitoring.ProgressBar,
	k int,
) hooking.Hook {
	return hooking.HookFunc(func(ctx hooking.HookCtx) {
		switch ctx.Pos {
		case agent.HookPosSnapshotBegin:
			bar.IncrementInProgress(1)
		case agent.HookPosSnapshotDone:
			bar.MoveInProgressToFinished(1)

			if ctx.Item.(agent.SnapshotRecord).Iteration == k-1 {
				m.CompleteProgressBar(bar)
			}
		}
	})
}
