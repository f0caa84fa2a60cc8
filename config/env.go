package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sarchlab/snapbench/eventlog"
)

// Environment variables that override Config fields.
const (
	EnvDelayUnit          = "SNAPBENCH_DELAY_UNIT"
	EnvLogCapacity        = "SNAPBENCH_LOG_CAPACITY"
	EnvOverflow           = "SNAPBENCH_OVERFLOW"
	EnvSnapshotMode       = "SNAPBENCH_SNAPSHOT_MODE"
	EnvMaxCollectAttempts = "SNAPBENCH_MAX_COLLECT_ATTEMPTS"
	EnvSeed               = "SNAPBENCH_SEED"
	EnvOutputFile         = "SNAPBENCH_OUTPUT"
	EnvRecordPath         = "SNAPBENCH_RECORD"
	EnvMonitorPort        = "SNAPBENCH_MONITOR_PORT"
)

// LoadEnv loads the given .env files, if they exist, into the process
// environment without overriding variables that are already set, and then
// applies every SNAPBENCH_* variable to c.
func (c *Config) LoadEnv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return errors.Wrap(err, "loading env files")
		}
	}

	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDelayUnit); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, EnvDelayUnit)
		}
		c.DelayUnit = d
	}

	if v, ok := lookup(EnvLogCapacity); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, EnvLogCapacity)
		}
		c.LogCapacity = n
	}

	if v, ok := lookup(EnvOverflow); ok {
		p, err := eventlog.ParseOverflowPolicy(v)
		if err != nil {
			return errors.Wrap(err, EnvOverflow)
		}
		c.Overflow = p
	}

	if v, ok := lookup(EnvSnapshotMode); ok {
		c.SnapshotMode = SnapshotMode(v)
	}

	if v, ok := lookup(EnvMaxCollectAttempts); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, EnvMaxCollectAttempts)
		}
		c.MaxCollectAttempts = n
	}

	if v, ok := lookup(EnvSeed); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, EnvSeed)
		}
		c.Seed = n
	}

	if v, ok := lookup(EnvOutputFile); ok {
		c.OutputFile = v
	}

	if v, ok := lookup(EnvRecordPath); ok {
		c.RecordPath = v
	}

	if v, ok := lookup(EnvMonitorPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, EnvMonitorPort)
		}
		c.MonitorPort = n
		c.Monitor = true
	}

	return nil
}
