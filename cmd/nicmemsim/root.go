package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/memmodel"
	"github.com/sarchlab/nicmem/monitoring"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "nicmemsim",
		Short: "Run a synthetic workload on the NIC and host memory model.",
		Long: `nicmemsim builds the memory model of a host with a NIC, ` +
			`issues a seeded random stream of memory operations from every ` +
			`host core and NIC unit and reports the latency statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	if err := opts.loadEnv(cmd); err != nil {
		return err
	}

	cfg, err := opts.modelConfig(cmd)
	if err != nil {
		return err
	}

	if opts.dumpConfig != "" {
		if err := cfg.SaveConfig(opts.dumpConfig); err != nil {
			return err
		}
	}

	if opts.randomIDs {
		sim.UseRandomIDs()
	}

	engine := sim.NewSerialEngine()

	closeTrace, err := attachEventLogger(engine, opts.traceEvents)
	if err != nil {
		return err
	}
	defer closeTrace()

	collector := stats.NewCollector()

	registry, err := statsRegistry(engine, collector, opts.statsDB)
	if err != nil {
		return err
	}

	sched := unit.NewScheduler(engine)
	model := memmodel.MakeBuilder().
		WithScheduler(sched).
		WithStats(registry).
		WithConfig(cfg).
		Build("Model")
	model.Init(0)

	wl := newWorkload(workloadParams{
		numCores:       cfg.NumCores,
		numNicUnits:    cfg.NumNicUnits,
		worksPerThread: opts.worksPerThread,
		opsPerWork:     opts.opsPerWork,
		maxOpSize:      opts.maxOpSize,
		lineSize:       cfg.LineSize,
		footprint:      opts.footprint,
		seed:           opts.seed,
	}, registry)

	var bar *monitoring.ProgressBar

	if opts.monitor || opts.openMonitor {
		m, err := startMonitor(engine, model, opts)
		if err != nil {
			return err
		}
		defer m.StopServer()

		bar = m.CreateProgressBar("Works", uint64(len(wl.plans)))
		defer m.CompleteProgressBar(bar)
	}

	wl.submit(model, sched, bar)

	if err := engine.Run(); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	engine.Finished()

	report(cmd.OutOrStdout(), engine.CurrentTime(), wl, collector)

	if wl.retired != len(wl.plans) {
		return fmt.Errorf("%d of %d works did not retire\n%s",
			len(wl.plans)-wl.retired, len(wl.plans), model.Status())
	}

	return nil
}

func attachEventLogger(engine sim.Engine, path string) (func(), error) {
	var w io.WriteCloser

	switch path {
	case "":
		return func() {}, nil
	case "-":
		engine.AcceptHook(sim.NewEventLogger(log.New(os.Stderr, "", 0)))
		return func() {}, nil
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create event trace: %w", err)
		}

		w = f
	}

	engine.AcceptHook(sim.NewEventLogger(log.New(w, "", 0)))

	return func() { w.Close() }, nil
}

func statsRegistry(
	engine sim.Engine,
	collector *stats.Collector,
	dbPath string,
) (stats.Registry, error) {
	if dbPath == "" {
		return collector, nil
	}

	recorder, err := stats.NewRecorder(dbPath, engine)
	if err != nil {
		return nil, fmt.Errorf("failed to create statistics database: %w", err)
	}

	engine.RegisterSimulationEndHandler(recorder)
	fmt.Fprintf(os.Stderr, "Recording statistics into %s\n", recorder.Path())

	return stats.Tee(collector, recorder), nil
}

func startMonitor(
	engine sim.Engine,
	model *memmodel.MemoryModel,
	opts *options,
) (*monitoring.Monitor, error) {
	m := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)
	m.RegisterEngine(engine)

	for _, c := range model.Components() {
		m.RegisterComponent(c)
	}

	port, err := m.StartServer()
	if err != nil {
		return nil, err
	}

	if opts.openMonitor {
		if err := m.OpenInBrowser(port); err != nil {
			log.Printf("%v", err)
		}
	}

	return m, nil
}
