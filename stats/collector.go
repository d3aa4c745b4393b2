package stats

import (
	"sort"
	"sync"
)

// Summary aggregates all the samples reported into one statistic.
type Summary struct {
	Component string
	Name      string
	Count     uint64
	Sum       uint64
	Min       uint64
	Max       uint64
}

// Mean returns the average sample value, or 0 if no sample was reported.
func (s Summary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}

	return float64(s.Sum) / float64(s.Count)
}

// Collector is an in-memory Registry that keeps a running summary of each
// statistic.
type Collector struct {
	lock  sync.Mutex
	stats map[string]*collectedStatistic
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		stats: make(map[string]*collectedStatistic),
	}
}

// Register returns the statistic for the given component and name. Calling
// Register twice with the same key returns the same statistic.
func (c *Collector) Register(component, name string) Statistic {
	c.lock.Lock()
	defer c.lock.Unlock()

	key := component + "." + name
	if s, ok := c.stats[key]; ok {
		return s
	}

	s := &collectedStatistic{
		collector: c,
		summary:   Summary{Component: component, Name: name},
	}
	c.stats[key] = s

	return s
}

// Lookup returns the summary of a statistic.
func (c *Collector) Lookup(component, name string) (Summary, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	s, ok := c.stats[component+"."+name]
	if !ok {
		return Summary{}, false
	}

	return s.summary, true
}

// Summaries returns every summary, sorted by component then name.
func (c *Collector) Summaries() []Summary {
	c.lock.Lock()
	defer c.lock.Unlock()

	list := make([]Summary, 0, len(c.stats))
	for _, s := range c.stats {
		list = append(list, s.summary)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Component != list[j].Component {
			return list[i].Component < list[j].Component
		}

		return list[i].Name < list[j].Name
	})

	return list
}

type collectedStatistic struct {
	collector *Collector
	summary   Summary
}

func (s *collectedStatistic) AddData(value uint64) {
	s.collector.lock.Lock()
	defer s.collector.lock.Unlock()

	sum := &s.summary
	if sum.Count == 0 || value < sum.Min {
		sum.Min = value
	}

	if value > sum.Max {
		sum.Max = value
	}

	sum.Count++
	sum.Sum += value
}
