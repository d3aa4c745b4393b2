package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sarchlab/nicmem/memmodel"
	"github.com/spf13/cobra"
)

// Environment variables that configure the run environment.
const (
	envMonitorPort = "NICMEM_MONITOR_PORT"
	envStatsDB     = "NICMEM_STATS_DB"
)

type options struct {
	configPath string
	envFile    string
	dumpConfig string

	numCores    int
	numNicUnits int
	noCache     bool
	noBridge    bool
	detailed    bool
	busVersion  int
	busWidth    int

	worksPerThread int
	opsPerWork     int
	maxOpSize      uint64
	footprint      uint64
	seed           int64

	traceEvents string
	monitor     bool
	monitorPort int
	openMonitor bool
	statsDB     string
	randomIDs   bool
}

func (o *options) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringVar(&o.configPath, "config", "", "YAML file of model parameters")
	f.StringVar(&o.envFile, "env-file", ".env", "file of environment variables")
	f.StringVar(&o.dumpConfig, "dump-config", "",
		"write the final model parameters to this YAML file")

	f.IntVar(&o.numCores, "cores", 0, "number of host cores")
	f.IntVar(&o.numNicUnits, "nic-units", 0, "number of NIC units")
	f.BoolVar(&o.noCache, "no-cache", false, "remove the host cache")
	f.BoolVar(&o.noBridge, "no-bridge", false,
		"connect the NIC units to the host without a bus bridge")
	f.BoolVar(&o.detailed, "detailed", false, "use the banked memory model")
	f.IntVar(&o.busVersion, "bus-version", 0,
		"link generation of the bus bridge, overrides the bandwidth")
	f.IntVar(&o.busWidth, "bus-width", 0,
		"number of lanes of the bus bridge link generation")

	f.IntVar(&o.worksPerThread, "works", 32, "works issued by every thread")
	f.IntVar(&o.opsPerWork, "ops", 4, "operations in every work")
	f.Uint64Var(&o.maxOpSize, "max-op-size", 1024,
		"largest operation in bytes")
	f.Uint64Var(&o.footprint, "footprint", 1<<24,
		"size of the address range that operations touch")
	f.Int64Var(&o.seed, "seed", 1, "seed of the workload generator")

	f.StringVar(&o.traceEvents, "trace-events", "",
		"log every event to this file, or - for stderr")
	f.BoolVar(&o.monitor, "monitor", false, "start the monitoring server")
	f.IntVar(&o.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random if 0")
	f.BoolVar(&o.openMonitor, "open-monitor", false,
		"open the monitoring page in a browser, implies --monitor")
	f.StringVar(&o.statsDB, "stats-db", "",
		"record every statistic sample into this SQLite file")
	f.BoolVar(&o.randomIDs, "random-ids", false,
		"give events and progress bars globally unique IDs")
}

// loadEnv reads the env file, if it exists, and fills the options that were
// not given as flags from the environment.
func (o *options) loadEnv(cmd *cobra.Command) error {
	err := godotenv.Load(o.envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", o.envFile, err)
	}

	if v, ok := os.LookupEnv(envMonitorPort); ok &&
		!cmd.Flags().Changed("monitor-port") {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envMonitorPort, v, err)
		}

		o.monitorPort = port
	}

	if v, ok := os.LookupEnv(envStatsDB); ok &&
		!cmd.Flags().Changed("stats-db") {
		o.statsDB = v
	}

	return nil
}

// modelConfig builds the model parameters from the defaults, the config
// file and the flags, in that order.
func (o *options) modelConfig(cmd *cobra.Command) (memmodel.Config, error) {
	cfg := memmodel.DefaultConfig()

	if o.configPath != "" {
		var err error

		cfg, err = memmodel.LoadConfig(o.configPath)
		if err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()

	if flags.Changed("cores") {
		cfg.NumCores = o.numCores
	}

	if flags.Changed("nic-units") {
		cfg.NumNicUnits = o.numNicUnits
	}

	if flags.Changed("bus-version") {
		cfg.BusVersion = o.busVersion
	}

	if flags.Changed("bus-width") {
		cfg.BusWidth = o.busWidth
	}

	if o.noCache {
		cfg.UseHostCache = false
	}

	if o.noBridge {
		cfg.UseBusBridge = false
	}

	if o.detailed {
		cfg.UseDetailedModel = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid model parameters: %w", err)
	}

	return cfg, nil
}
