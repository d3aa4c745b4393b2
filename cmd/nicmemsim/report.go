package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

func report(
	w io.Writer,
	now sim.VTime,
	wl *workload,
	collector *stats.Collector,
) {
	title := color.New(color.FgCyan, color.Bold)
	header := color.New(color.Bold)

	title.Fprintf(w, "Simulated time: %.3f us\n",
		float64(now)/float64(sim.Microsecond))

	retired := fmt.Sprintf("%d/%d", wl.retired, len(wl.plans))
	if wl.retired == len(wl.plans) {
		retired = color.GreenString(retired)
	} else {
		retired = color.YellowString(retired)
	}

	fmt.Fprintf(w, "Works retired: %s\n\n", retired)

	header.Fprintf(w, "%-36s %-22s %10s %14s %14s\n",
		"Component", "Statistic", "Count", "Mean", "Max")

	for _, s := range collector.Summaries() {
		if s.Count == 0 {
			continue
		}

		fmt.Fprintf(w, "%-36s %-22s %10d %14.1f %14d\n",
			s.Component, s.Name, s.Count, s.Mean(), s.Max)
	}
}
