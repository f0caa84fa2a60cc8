package agent

import (
	"time"

	"github.com/sarchlab/snapbench/timing"
	"golang.org/x/exp/rand"
)

// A WriterBuilder describes one writer. Every field is copied into the writer,
// so a builder can be reused for the next agent.
type WriterBuilder struct {
	id        int
	meanDelay float64
	delayUnit time.Duration
	seed      uint64
	registers RegisterWriter
	log       Appender
	clock     timing.Clock
	sampler   timing.Sampler
}

// MakeWriterBuilder creates a WriterBuilder with default parameters.
func MakeWriterBuilder() WriterBuilder {
	return WriterBuilder{
		delayUnit: time.Second,
		clock:     timing.WallClock{},
	}
}

// WithID sets the number the writer reports in its log lines.
func (b WriterBuilder) WithID(id int) WriterBuilder {
	b.id = id
	return b
}

// WithMeanDelay sets the mean sleep between writes, in delay units.
func (b WriterBuilder) WithMeanDelay(mean float64) WriterBuilder {
	b.meanDelay = mean
	return b
}

// WithDelayUnit sets the unit the mean delay is expressed in.
func (b WriterBuilder) WithDelayUnit(unit time.Duration) WriterBuilder {
	b.delayUnit = unit
	return b
}

// WithSeed seeds the writer's random generator.
func (b WriterBuilder) WithSeed(seed uint64) WriterBuilder {
	b.seed = seed
	return b
}

// WithRegisters sets the registers to write into.
func (b WriterBuilder) WithRegisters(r RegisterWriter) WriterBuilder {
	b.registers = r
	return b
}

// WithLog sets where the writer logs.
func (b WriterBuilder) WithLog(l Appender) WriterBuilder {
	b.log = l
	return b
}

// WithClock replaces the wall clock.
func (b WriterBuilder) WithClock(c timing.Clock) WriterBuilder {
	b.clock = c
	return b
}

// WithSampler replaces the exponential delay sampler.
func (b WriterBuilder) WithSampler(s timing.Sampler) WriterBuilder {
	b.sampler = s
	return b
}

// Build creates the writer.
func (b WriterBuilder) Build(name string) *Writer {
	if b.registers == nil || b.log == nil {
		panic("writer needs registers and a log")
	}

	rng := timing.NewRand(b.seed)

	return &Writer{
		name:      name,
		ID:        b.id,
		MeanDelay: b.meanDelay,
		registers: b.registers,
		log:       b.log,
		clock:     b.clock,
		sampler:   b.samplerOrDefault(rng),
		rng:       rng,
	}
}

func (b WriterBuilder) samplerOrDefault(rng *rand.Rand) timing.Sampler {
	if b.sampler != nil {
		return b.sampler
	}

	return timing.NewExponential(rng, b.delayUnit)
}

// A SnapshotterBuilder describes one snapshot agent.
type SnapshotterBuilder struct {
	id        int
	meanDelay float64
	delayUnit time.Duration
	k         int
	seed      uint64
	collector Collector
	log       Appender
	clock     timing.Clock
	sampler   timing.Sampler
}

// MakeSnapshotterBuilder creates a SnapshotterBuilder with default parameters.
func MakeSnapshotterBuilder() SnapshotterBuilder {
	return SnapshotterBuilder{
		delayUnit: time.Second,
		k:         1,
		clock:     timing.WallClock{},
	}
}

// WithID sets the number the agent reports in its log lines.
func (b SnapshotterBuilder) WithID(id int) SnapshotterBuilder {
	b.id = id
	return b
}

// WithMeanDelay sets the mean sleep between snapshots, in delay units.
func (b SnapshotterBuilder) WithMeanDelay(mean float64) SnapshotterBuilder {
	b.meanDelay = mean
	return b
}

// WithDelayUnit sets the unit the mean delay is expressed in.
func (b SnapshotterBuilder) WithDelayUnit(unit time.Duration) SnapshotterBuilder {
	b.delayUnit = unit
	return b
}

// WithNumSnapshots sets how many snapshots the agent takes.
func (b SnapshotterBuilder) WithNumSnapshots(k int) SnapshotterBuilder {
	b.k = k
	return b
}

// WithSeed seeds the agent's random generator.
func (b SnapshotterBuilder) WithSeed(seed uint64) SnapshotterBuilder {
	b.seed = seed
	return b
}

// WithCollector sets how snapshots are collected.
func (b SnapshotterBuilder) WithCollector(c Collector) SnapshotterBuilder {
	b.collector = c
	return b
}

// WithLog sets where the agent logs.
func (b SnapshotterBuilder) WithLog(l Appender) SnapshotterBuilder {
	b.log = l
	return b
}

// WithClock replaces the wall clock.
func (b SnapshotterBuilder) WithClock(c timing.Clock) SnapshotterBuilder {
	b.clock = c
	return b
}

// WithSampler replaces the exponential delay sampler.
func (b SnapshotterBuilder) WithSampler(s timing.Sampler) SnapshotterBuilder {
	b.sampler = s
	return b
}

// Build creates the snapshot agent.
func (b SnapshotterBuilder) Build(name string) *Snapshotter {
	if b.collector == nil || b.log == nil {
		panic("snapshotter needs a collector and a log")
	}

	if b.k < 0 {
		panic("number of snapshots cannot be negative")
	}

	sampler := b.sampler
	if sampler == nil {
		sampler = timing.NewExponential(timing.NewRand(b.seed), b.delayUnit)
	}

	return &Snapshotter{
		name:      name,
		ID:        b.id,
		MeanDelay: b.meanDelay,
		K:         b.k,
		collector: b.collector,
		log:       b.log,
		clock:     b.clock,
		sampler:   sampler,
	}
}
