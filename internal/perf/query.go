package perf

import (
	"fmt"
	"time"

	"github.com/Guliveer/vitalis/hostnet/internal/models"
)

// Window is the sampling window of a query: IntervalID is the sample spacing
// in seconds and MaxSamples caps how many samples come back.
type Window struct {
	IntervalID int32
	MaxSamples int32
}

// Validate checks that both window bounds are positive.
func (w Window) Validate() error {
	if w.IntervalID <= 0 {
		return fmt.Errorf("sampling interval must be > 0 (got %d)", w.IntervalID)
	}
	if w.MaxSamples <= 0 {
		return fmt.Errorf("max samples must be > 0 (got %d)", w.MaxSamples)
	}
	return nil
}

// QuerySpec describes one counter instance to fetch for one host.
type QuerySpec struct {
	Host     models.Host
	Counter  CounterKey
	Instance string
	Window   Window
}

// Build returns the query for a single (host, interface) pair.
func Build(host models.Host, key CounterKey, iface string, w Window) QuerySpec {
	return QuerySpec{
		Host:     host,
		Counter:  key,
		Instance: iface,
		Window:   w,
	}
}

// BuildBatch returns one query per interface. The query at position i is
// built from ifaces[i]; results are mapped back by that position.
func BuildBatch(host models.Host, key CounterKey, ifaces []string, w Window) []QuerySpec {
	batch := make([]QuerySpec, 0, len(ifaces))
	for _, iface := range ifaces {
		batch = append(batch, Build(host, key, iface, w))
	}
	return batch
}

// RawResult is one entry of a batched query response, as received.
// Timestamps is nil when the controller returned no sample info. Values holds
// one slice per returned counter series; a nil entry means the series was
// present without data.
type RawResult struct {
	Timestamps []time.Time
	Values     [][]int64
}

// Normalize turns a possibly absent result into a series the rest of the
// pipeline can use without nil checks.
//
// A nil result or one without sample info yields an empty series. A result
// with sample info but no value array keeps its timestamps and has empty
// values.
func Normalize(r *RawResult) models.SampleSeries {
	out := models.EmptySeries()
	if r == nil || len(r.Timestamps) == 0 {
		return out
	}

	out.Timestamps = append(out.Timestamps, r.Timestamps...)
	if len(r.Values) > 0 && r.Values[0] != nil {
		out.Values = append(out.Values, r.Values[0]...)
	}
	return out
}
