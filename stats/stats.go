// Package stats provides write-only statistic sinks that the memory stages
// report into.
package stats

// A Statistic accepts samples. Implementations must not alter the behaviour
// of the component that reports into them.
type Statistic interface {
	AddData(value uint64)
}

// A Registry hands out Statistic handles, one per (component, name).
type Registry interface {
	Register(component, name string) Statistic
}

// Nop is a Registry that discards every sample.
var Nop Registry = nopRegistry{}

type nopRegistry struct{}

func (nopRegistry) Register(string, string) Statistic {
	return nopStatistic{}
}

type nopStatistic struct{}

func (nopStatistic) AddData(uint64) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Registry) Registry {
	if r == nil {
		return Nop
	}

	return r
}

// Tee forwards every sample to all the given registries.
func Tee(registries ...Registry) Registry {
	return teeRegistry(registries)
}

type teeRegistry []Registry

func (t teeRegistry) Register(component, name string) Statistic {
	s := make(teeStatistic, 0, len(t))
	for _, r := range t {
		if r == nil {
			continue
		}

		s = append(s, r.Register(component, name))
	}

	return s
}

type teeStatistic []Statistic

func (t teeStatistic) AddData(value uint64) {
	for _, s := range t {
		s.AddData(value)
	}
}
