package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sarchlab/snapbench/config"
	"github.com/sarchlab/snapbench/datarecording"
	"github.com/sarchlab/snapbench/eventlog"
	"github.com/sarchlab/snapbench/monitoring"
	"github.com/sarchlab/snapbench/report"
	"github.com/sarchlab/snapbench/simulation"
	"github.com/spf13/cobra"
)

func registerFlags(c *cobra.Command) {
	f := c.Flags()

	f.StringP("config", "c", config.DefaultInputFile,
		"File holding: writers snapshotters registers "+
			"writer-mean snapshot-mean snapshots-per-agent")
	f.String("env-file", ".env", "Optional file with SNAPBENCH_* overrides")
	f.StringP("output", "o", config.DefaultOutputFile,
		"File receiving the ordered log lines")
	f.String("record", "", "Record the run into <record>.sqlite3")
	f.Bool("monitor", false, "Serve live progress over HTTP")
	f.Int("monitor-port", 0, "Port of the monitoring server, random if 0")
	f.Bool("open-monitor", false, "Open the monitor in a web browser")
	f.Uint64("seed", 0, "Base random seed, time-based if 0")
	f.Duration("delay-unit", time.Second, "Unit of the mean delays")
	f.Int("log-capacity", eventlog.DefaultCapacity,
		"Maximum number of log entries kept")
	f.String("overflow", "drop", "What a full log does: drop or grow")
	f.String("snapshot-mode", string(config.SinglePass),
		"How snapshots are collected: single or double-collect")
	f.Int("max-collect-attempts", 0,
		"Give up a double-collect snapshot after this many collects, 0 never")
	f.BoolP("verbose", "v", false, "Print every agent event to stderr")
}

// loadConfig reads the input file, then the env file, then the flags that
// were set explicitly; later sources win.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()

	path, _ := f.GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return c, err
	}

	envFile, _ := f.GetString("env-file")
	if err := c.LoadEnv(envFile); err != nil {
		return c, err
	}

	if f.Changed("output") {
		c.OutputFile, _ = f.GetString("output")
	}

	if f.Changed("record") {
		c.RecordPath, _ = f.GetString("record")
	}

	if f.Changed("monitor") {
		c.Monitor, _ = f.GetBool("monitor")
	}

	if f.Changed("monitor-port") {
		c.MonitorPort, _ = f.GetInt("monitor-port")
		c.Monitor = true
	}

	if f.Changed("seed") {
		c.Seed, _ = f.GetUint64("seed")
	}

	if f.Changed("delay-unit") {
		c.DelayUnit, _ = f.GetDuration("delay-unit")
	}

	if f.Changed("log-capacity") {
		c.LogCapacity, _ = f.GetInt("log-capacity")
	}

	if f.Changed("overflow") {
		s, _ := f.GetString("overflow")
		c.Overflow, err = eventlog.ParseOverflowPolicy(s)
		if err != nil {
			return c, err
		}
	}

	if f.Changed("snapshot-mode") {
		s, _ := f.GetString("snapshot-mode")
		c.SnapshotMode = config.SnapshotMode(s)
	}

	if f.Changed("max-collect-attempts") {
		c.MaxCollectAttempts, _ = f.GetInt("max-collect-attempts")
	}

	return c, c.Validate()
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "configuration")
	}

	sink, err := report.NewFileSink(cmd.OutOrStdout(), c.OutputFile)
	if err != nil {
		return err
	}
	defer sink.Close()

	builder := simulation.MakeBuilder().WithConfig(c)

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		builder = builder.WithLogger(
			log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds))
	}

	if c.RecordPath != "" {
		builder = builder.WithDataRecorder(datarecording.New(c.RecordPath))
	}

	var monitor *monitoring.Monitor
	if c.Monitor {
		monitor = monitoring.NewMonitor().WithPortNumber(c.MonitorPort)
		builder = builder.WithMonitor(monitor)
	}

	s := builder.Build()

	if monitor != nil {
		if err := startMonitor(cmd, monitor); err != nil {
			return err
		}
		defer stopMonitor(monitor)
	}

	result, err := s.Run(sink)
	if err != nil {
		return err
	}

	if result.Dropped > 0 {
		fmt.Fprintf(os.Stderr, "%d log entries did not fit into the log\n",
			result.Dropped)
	}

	return errors.Wrap(s.Terminate(), "closing recorder")
}

func startMonitor(cmd *cobra.Command, m *monitoring.Monitor) error {
	if err := m.StartServer(); err != nil {
		return err
	}

	if open, _ := cmd.Flags().GetBool("open-monitor"); open {
		if err := m.OpenInBrowser(); err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	return nil
}

func stopMonitor(m *monitoring.Monitor) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.StopServer(ctx); err != nil {
		log.Printf("stopping monitor: %v", err)
	}
}
