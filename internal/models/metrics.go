// Package models defines the data structures shared by the collection pipeline.
// These structures are serialized to JSON when a run is exported.
package models

import (
	"sort"
	"time"
)

// Ref is a managed object reference on the controller, e.g. {HostSystem, host-12}.
type Ref struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// String returns the reference in "Type:Value" form.
func (r Ref) String() string {
	return r.Type + ":" + r.Value
}

// Host identifies a hypervisor node. Ref is unique; Name is only expected to be.
type Host struct {
	Name string `json:"name"`
	Ref  Ref    `json:"ref"`
}

// SampleSeries holds the samples returned for one (host, interface) pair.
// Timestamps and Values are parallel when both are populated. Timestamps
// without values is a valid state: the controller reports sample metadata and
// sample values in separate arrays.
type SampleSeries struct {
	Timestamps []time.Time `json:"timestamps"`
	Values     []int64     `json:"values"`
}

// EmptySeries returns a series with non-nil, zero-length slices.
func EmptySeries() SampleSeries {
	return SampleSeries{
		Timestamps: make([]time.Time, 0),
		Values:     make([]int64, 0),
	}
}

// HasData reports whether the series carries at least one value.
func (s SampleSeries) HasData() bool {
	return len(s.Values) > 0
}

// InterfaceSeries maps an interface label to its samples.
type InterfaceSeries map[string]SampleSeries

// SeriesStore maps a host name to its per-interface series.
type SeriesStore map[string]InterfaceSeries

// HostNames returns the host names in lexicographic order.
func (s SeriesStore) HostNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SampleCount returns the total number of values across all hosts and interfaces.
func (s SeriesStore) SampleCount() int {
	total := 0
	for _, ifaces := range s {
		for _, series := range ifaces {
			total += len(series.Values)
		}
	}
	return total
}
