// Command nicmemsim runs a synthetic workload of host cores and NIC units on
// the memory model and reports the resulting latencies.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
