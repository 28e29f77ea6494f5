// Package collector executes the per-host performance queries and folds the
// results into a SeriesStore.
package collector

import (
	"context"

	"github.com/Guliveer/vitalis/hostnet/internal/perf"
)

// QueryService executes a batch of performance queries in one round-trip.
// The result slice is positional: entry i answers batch[i] and may be nil.
type QueryService interface {
	QueryPerf(ctx context.Context, batch []perf.QuerySpec) ([]*perf.RawResult, error)
}

// Options tunes how hosts are scheduled against the controller.
type Options struct {
	// Concurrency is the number of host batches in flight. Values below 1
	// mean sequential collection.
	Concurrency int

	// QueryRate caps batches per second. Zero disables pacing.
	QueryRate float64
}
