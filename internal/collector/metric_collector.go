package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Guliveer/vitalis/hostnet/internal/models"
	"github.com/Guliveer/vitalis/hostnet/internal/perf"
)

// MetricCollector queries one batch per host and assembles the SeriesStore.
// A failed batch drops that host from the store; the other hosts continue.
type MetricCollector struct {
	svc     QueryService
	logger  *zap.Logger
	workers int
	limiter *rate.Limiter

	onHostCollected func(models.Host, models.InterfaceSeries)
	onHostFailed    func(models.Host, error)
}

// New creates a MetricCollector using svc for the batched queries.
func New(svc QueryService, opts Options, logger *zap.Logger) *MetricCollector {
	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	limit := rate.Inf
	if opts.QueryRate > 0 {
		limit = rate.Limit(opts.QueryRate)
	}
	return &MetricCollector{
		svc:     svc,
		logger:  logger,
		workers: workers,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// OnHostCollected sets a callback invoked, in host order, for every host
// whose batch succeeded.
func (c *MetricCollector) OnHostCollected(fn func(models.Host, models.InterfaceSeries)) {
	c.onHostCollected = fn
}

// OnHostFailed sets a callback invoked, in host order, for every host whose
// batch failed.
func (c *MetricCollector) OnHostFailed(fn func(models.Host, error)) {
	c.onHostFailed = fn
}

type hostOutcome struct {
	series models.InterfaceSeries
	err    error
}

// Collect runs one batch per host and returns the per-host, per-interface
// series. Only an invalid window or a cancelled context produce an error;
// per-host failures are reported through the log and OnHostFailed.
//
// When two hosts share a name, the one later in hosts overwrites the earlier
// entry. This holds for any concurrency setting because results are folded
// in host order.
func (c *MetricCollector) Collect(ctx context.Context, hosts []models.Host, key perf.CounterKey, ifaces []string, w perf.Window) (models.SeriesStore, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]hostOutcome, len(hosts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, h := range hosts {
		i, h := i, h
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				outcomes[i] = hostOutcome{err: fmt.Errorf("pacing query for %s: %w", h.Name, err)}
				return nil
			}
			series, err := c.collectHost(gctx, h, key, ifaces, w)
			outcomes[i] = hostOutcome{series: series, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store := make(models.SeriesStore, len(hosts))
	owners := make(map[string]models.Ref, len(hosts))
	for i, h := range hosts {
		o := outcomes[i]
		if o.err != nil {
			c.logger.Warn("Host query failed, skipping host",
				zap.String("host", h.Name),
				zap.Stringer("ref", h.Ref),
				zap.Error(o.err))
			if c.onHostFailed != nil {
				c.onHostFailed(h, o.err)
			}
			continue
		}

		if prev, ok := owners[h.Name]; ok {
			c.logger.Warn("Duplicate host name, later host overwrites earlier series",
				zap.String("host", h.Name),
				zap.Stringer("overwritten_ref", prev),
				zap.Stringer("ref", h.Ref))
		}
		owners[h.Name] = h.Ref
		store[h.Name] = o.series

		if c.onHostCollected != nil {
			c.onHostCollected(h, o.series)
		}
	}

	return store, nil
}

// collectHost executes the batch for one host and maps result i back to
// ifaces[i]. Results missing from the tail of the response count as absent.
func (c *MetricCollector) collectHost(ctx context.Context, h models.Host, key perf.CounterKey, ifaces []string, w perf.Window) (models.InterfaceSeries, error) {
	batch := perf.BuildBatch(h, key, ifaces, w)

	results, err := c.svc.QueryPerf(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("query %d interfaces on %s: %w", len(batch), h.Name, err)
	}
	if len(results) > len(batch) {
		c.logger.Debug("Controller returned extra results, ignoring",
			zap.String("host", h.Name),
			zap.Int("expected", len(batch)),
			zap.Int("got", len(results)))
	}

	series := make(models.InterfaceSeries, len(ifaces))
	for i, iface := range ifaces {
		var r *perf.RawResult
		if i < len(results) {
			r = results[i]
		}
		series[iface] = perf.Normalize(r)
	}

	c.logger.Debug("Collected host",
		zap.String("host", h.Name),
		zap.Int("interfaces", len(ifaces)))
	return series, nil
}
