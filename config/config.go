// Package config loads the parameters of a benchmark run.
package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sarchlab/snapbench/eventlog"
)

// DefaultInputFile is where the parameters are read from unless told
// otherwise.
const DefaultInputFile = "inp-params.txt"

// DefaultOutputFile is where the ordered log lines are written.
const DefaultOutputFile = "out.txt"

// SnapshotMode selects how snapshot agents collect the registers.
type SnapshotMode string

// Snapshot modes.
const (
	// SinglePass reads every register once. Views may be torn.
	SinglePass SnapshotMode = "single"
	// DoubleCollect repeats collects until two consecutive ones agree.
	DoubleCollect SnapshotMode = "double-collect"
)

// Config holds everything a run needs.
type Config struct {
	NumWriters      int
	NumSnapshotters int
	NumRegisters    int
	WriterMeanDelay float64
	SnapMeanDelay   float64
	NumSnapshots    int

	DelayUnit          time.Duration
	LogCapacity        int
	Overflow           eventlog.OverflowPolicy
	SnapshotMode       SnapshotMode
	MaxCollectAttempts int
	Seed               uint64

	OutputFile  string
	RecordPath  string
	Monitor     bool
	MonitorPort int
}

// Default returns a Config with every extension at its default and the six
// run parameters unset.
func Default() Config {
	return Config{
		DelayUnit:    time.Second,
		LogCapacity:  eventlog.DefaultCapacity,
		Overflow:     eventlog.Drop,
		SnapshotMode: SinglePass,
		OutputFile:   DefaultOutputFile,
	}
}

// Load reads the six run parameters from a file and returns a validated
// Config built on Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to open input file")
	}
	defer f.Close()

	c := Default()
	if err := c.Parse(f); err != nil {
		return Config{}, errors.Wrapf(err, "reading %s", path)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Parse reads "nw ns M mu_w mu_s k", separated by any whitespace.
func (c *Config) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	next := func(field string) (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", errors.Wrap(err, field)
			}

			return "", errors.Errorf("missing field %s", field)
		}

		return scanner.Text(), nil
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"writer count", &c.NumWriters},
		{"snapshot count", &c.NumSnapshotters},
		{"register count", &c.NumRegisters},
	}
	for _, f := range ints {
		if err := parseInt(next, f.name, f.dst); err != nil {
			return err
		}
	}

	if err := parseFloat(next, "writer mean delay", &c.WriterMeanDelay); err != nil {
		return err
	}

	if err := parseFloat(next, "snapshot mean delay", &c.SnapMeanDelay); err != nil {
		return err
	}

	return parseInt(next, "snapshots per agent", &c.NumSnapshots)
}

func parseInt(next func(string) (string, error), name string, dst *int) error {
	s, err := next(name)
	if err != nil {
		return err
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrapf(err, "field %s", name)
	}

	*dst = v

	return nil
}

func parseFloat(
	next func(string) (string, error),
	name string,
	dst *float64,
) error {
	s, err := next(name)
	if err != nil {
		return err
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrapf(err, "field %s", name)
	}

	*dst = v

	return nil
}

// Validate checks that the Config describes a run that can start.
func (c Config) Validate() error {
	switch {
	case c.NumWriters < 0:
		return errors.Errorf("writer count must not be negative, got %d",
			c.NumWriters)
	case c.NumSnapshotters < 0:
		return errors.Errorf("snapshot count must not be negative, got %d",
			c.NumSnapshotters)
	case c.NumRegisters <= 0:
		return errors.Errorf("register count must be positive, got %d",
			c.NumRegisters)
	case c.WriterMeanDelay <= 0:
		return errors.Errorf("writer mean delay must be positive, got %g",
			c.WriterMeanDelay)
	case c.SnapMeanDelay <= 0:
		return errors.Errorf("snapshot mean delay must be positive, got %g",
			c.SnapMeanDelay)
	case c.NumSnapshots <= 0:
		return errors.Errorf("snapshots per agent must be positive, got %d",
			c.NumSnapshots)
	case c.DelayUnit <= 0:
		return errors.Errorf("delay unit must be positive, got %s", c.DelayUnit)
	case c.LogCapacity <= 0:
		return errors.Errorf("log capacity must be positive, got %d",
			c.LogCapacity)
	case c.MaxCollectAttempts < 0:
		return errors.Errorf("max collect attempts must not be negative, got %d",
			c.MaxCollectAttempts)
	}

	if c.SnapshotMode != SinglePass && c.SnapshotMode != DoubleCollect {
		return errors.Errorf("unknown snapshot mode %q", c.SnapshotMode)
	}

	return nil
}
