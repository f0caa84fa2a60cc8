// Package cmd provides the command-line interface for snapbench.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCommand()

// NewRootCommand creates the snapbench command with all its flags.
func NewRootCommand() *cobra.Command {
	c := &cobra.Command{
		Use: "snapbench",
		Short: "snapbench measures snapshot latency over a shared register " +
			"array under concurrent writers.",
		Long: `snapbench starts writer agents that keep overwriting random ` +
			`registers and snapshot agents that repeatedly collect all ` +
			`registers. It prints the total run time and writes every ` +
			`event, ordered by time, to the output file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBenchmark,
	}

	registerFlags(c)

	return c
}

// Execute runs the root command and exits the process. Exit status 1 means
// the run did not happen or did not complete.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
