// Package perf models the controller's performance API: the counter catalog,
// query descriptors and the raw result shape returned by a batched query.
package perf

import (
	"errors"
	"fmt"
)

// ErrCounterNotFound is returned when no catalog entry matches a counter name.
var ErrCounterNotFound = errors.New("performance counter not found")

// CounterKey is the controller's numeric counter identifier.
type CounterKey int32

// CounterDescriptor describes one counter exposed by the controller.
type CounterDescriptor struct {
	Group  string
	Metric string
	Rollup string
	Key    CounterKey
}

// FullName returns the composite "group.metric.rollup" name.
func (d CounterDescriptor) FullName() string {
	return d.Group + "." + d.Metric + "." + d.Rollup
}

// Catalog resolves counter names against a snapshot of the controller's
// counter list. It lives for one run only.
type Catalog struct {
	counters []CounterDescriptor
}

// NewCatalog wraps the descriptors in the order the controller returned them.
func NewCatalog(counters []CounterDescriptor) *Catalog {
	return &Catalog{counters: counters}
}

// Len returns the number of descriptors in the catalog.
func (c *Catalog) Len() int { return len(c.counters) }

// Resolve finds the key for metric (e.g. "net.usage") aggregated by rollup
// (e.g. "average"). The first exact match wins.
func (c *Catalog) Resolve(metric, rollup string) (CounterKey, error) {
	want := metric + "." + rollup
	for _, d := range c.counters {
		if d.FullName() == want {
			return d.Key, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrCounterNotFound, want)
}
