// Command snapbench runs the multi-writer snapshot benchmark.
package main

import "github.com/sarchlab/snapbench/snapbench/cmd"

func main() {
	cmd.Execute()
}
