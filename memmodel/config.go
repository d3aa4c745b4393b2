package memmodel

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/sarchlab/nicmem/mem/busbridge"
	"github.com/sarchlab/nicmem/sim"
	"gopkg.in/yaml.v3"
)

// Config holds the parameters of a memory model. Latencies are in
// nanoseconds.
type Config struct {
	MemReadLatency  uint64 `yaml:"mem_read_latency"`
	MemWriteLatency uint64 `yaml:"mem_write_latency"`
	MemSlots        int    `yaml:"mem_slots"`

	HostLoadQueue  int `yaml:"host_load_queue"`
	HostStoreQueue int `yaml:"host_store_queue"`
	NicLoadQueue   int `yaml:"nic_load_queue"`
	NicStoreQueue  int `yaml:"nic_store_queue"`

	// BusVersion selects the link generation. When it is set, it overrides
	// BusBandwidth, and BusWidth, if set, overrides BusLinks.
	BusVersion   int     `yaml:"bus_version"`
	BusWidth     int     `yaml:"bus_width"`
	BusBandwidth float64 `yaml:"bus_bandwidth_gbps"`
	BusLinks     int     `yaml:"bus_links"`
	BusLatency   uint64  `yaml:"bus_latency"`
	TLPOverhead  uint64  `yaml:"tlp_overhead"`
	DLLBytes     uint64  `yaml:"dll_bytes"`
	DLLInterval  int     `yaml:"dll_interval"`
	WidgetSlots  int     `yaml:"widget_slots"`
	WidgetQueue  int     `yaml:"widget_queue"`

	CacheSize       uint64 `yaml:"cache_size"`
	LineSize        uint64 `yaml:"line_size"`
	NumMSHR         int    `yaml:"num_mshr"`
	CacheHitLatency uint64 `yaml:"cache_hit_latency"`

	TLBPageSize    uint64 `yaml:"tlb_page_size"`
	TLBEntries     int    `yaml:"tlb_entries"`
	TLBMissLatency uint64 `yaml:"tlb_miss_latency"`
	TLBWalkers     int    `yaml:"tlb_walkers"`

	NicToHostMTU uint64 `yaml:"nic_to_host_mtu"`
	NumCores     int    `yaml:"num_cores"`
	NumNicUnits  int    `yaml:"num_nic_units"`

	UseHostCache     bool `yaml:"use_host_cache"`
	UseBusBridge     bool `yaml:"use_bus_bridge"`
	UseDetailedModel bool `yaml:"use_detailed_model"`

	DetailedBanks          int    `yaml:"detailed_banks"`
	DetailedRowSize        uint64 `yaml:"detailed_row_size"`
	DetailedRowHitLatency  uint64 `yaml:"detailed_row_hit_latency"`
	DetailedRowMissLatency uint64 `yaml:"detailed_row_miss_latency"`
}

// DefaultConfig returns a configuration of a 4-core host with a single NIC
// unit behind a x16 link.
func DefaultConfig() Config {
	return Config{
		MemReadLatency:  100,
		MemWriteLatency: 100,
		MemSlots:        16,

		HostLoadQueue:  8,
		HostStoreQueue: 8,
		NicLoadQueue:   16,
		NicStoreQueue:  16,

		BusBandwidth: 7.877,
		BusLinks:     16,
		BusLatency:   200,
		TLPOverhead:  24,
		DLLBytes:     8,
		DLLInterval:  4,
		WidgetSlots:  32,
		WidgetQueue:  16,

		CacheSize:       256 * 1024,
		LineSize:        64,
		NumMSHR:         16,
		CacheHitLatency: 2,

		TLBPageSize:    4096,
		TLBEntries:     64,
		TLBMissLatency: 50,
		TLBWalkers:     4,

		NicToHostMTU: 256,
		NumCores:     4,
		NumNicUnits:  1,

		UseHostCache: true,
		UseBusBridge: true,

		DetailedBanks:          8,
		DetailedRowSize:        2048,
		DetailedRowHitLatency:  15,
		DetailedRowMissLatency: 45,
	}
}

// LoadConfig reads a YAML file on top of the default configuration.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return c, nil
}

// SaveConfig writes the configuration to a YAML file.
func (c Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// Validate checks that the configuration describes a model that can be
// built.
func (c Config) Validate() error {
	var errs []error

	positive := map[string]int{
		"mem_slots":        c.MemSlots,
		"host_load_queue":  c.HostLoadQueue,
		"host_store_queue": c.HostStoreQueue,
		"nic_load_queue":   c.NicLoadQueue,
		"nic_store_queue":  c.NicStoreQueue,
		"num_cores":        c.NumCores,
		"tlb_entries":      c.TLBEntries,
		"tlb_walkers":      c.TLBWalkers,
	}

	if c.UseHostCache {
		positive["num_mshr"] = c.NumMSHR
	}

	if c.UseBusBridge {
		positive["bus_links"] = c.BusLinks
		positive["widget_slots"] = c.WidgetSlots
		positive["widget_queue"] = c.WidgetQueue
	}

	if c.UseDetailedModel {
		positive["detailed_banks"] = c.DetailedBanks
	}

	for _, name := range sortedKeys(positive) {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0", name))
		}
	}

	if c.NumNicUnits < 0 {
		errs = append(errs, errors.New("num_nic_units must be >= 0"))
	}

	if !isPowerOfTwo(c.LineSize) {
		errs = append(errs, fmt.Errorf("line_size %d is not a power of two", c.LineSize))
	}

	if !isPowerOfTwo(c.TLBPageSize) {
		errs = append(errs, fmt.Errorf("tlb_page_size %d is not a power of two", c.TLBPageSize))
	}

	if c.NicToHostMTU == 0 {
		errs = append(errs, errors.New("nic_to_host_mtu must be > 0"))
	}

	if c.UseHostCache && c.LineSize != 0 && c.CacheSize < c.LineSize {
		errs = append(errs, errors.New("cache_size must hold at least one line"))
	}

	if c.UseBusBridge && c.BusVersion == 0 && c.BusBandwidth <= 0 {
		errs = append(errs, errors.New("bus_bandwidth_gbps must be > 0"))
	}

	if c.UseBusBridge && c.BusVersion != 0 {
		if _, ok := busbridge.LaneBandwidth(c.BusVersion); !ok {
			errs = append(errs, fmt.Errorf(
				"bus_version %d is not supported", c.BusVersion))
		}
	}

	if c.BusWidth < 0 {
		errs = append(errs, errors.New("bus_width must be >= 0"))
	}

	if c.UseDetailedModel && !isPowerOfTwo(c.DetailedRowSize) {
		errs = append(errs, fmt.Errorf(
			"detailed_row_size %d is not a power of two", c.DetailedRowSize))
	}

	return errors.Join(errs...)
}

func ns(n uint64) sim.VTime {
	return sim.VTime(n) * sim.Nanosecond
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
