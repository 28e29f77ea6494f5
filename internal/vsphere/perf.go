package vsphere

import (
	"context"
	"fmt"
	"time"

	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/types"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/hostnet/internal/perf"
)

// Counters lists every performance counter the controller exposes, in the
// order the controller returns them.
func (s *Session) Counters(ctx context.Context) ([]perf.CounterDescriptor, error) {
	infos, err := s.perf.CounterInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("list perf counters: %w", err)
	}
	out := make([]perf.CounterDescriptor, 0, len(infos))
	for _, info := range infos {
		out = append(out, toDescriptor(info))
	}
	return out, nil
}

func toDescriptor(info types.PerfCounterInfo) perf.CounterDescriptor {
	d := perf.CounterDescriptor{
		Rollup: string(info.RollupType),
		Key:    perf.CounterKey(info.Key),
	}
	if info.GroupInfo != nil {
		d.Group = info.GroupInfo.GetElementDescription().Key
	}
	if info.NameInfo != nil {
		d.Metric = info.NameInfo.GetElementDescription().Key
	}
	return d
}

// QueryPerf sends the batch to the PerformanceManager in one call. The
// returned slice always has len(batch) entries; entry i is nil when the
// controller returned nothing usable at position i.
func (s *Session) QueryPerf(ctx context.Context, batch []perf.QuerySpec) ([]*perf.RawResult, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	req := types.QueryPerf{
		This:      *s.vim.ServiceContent.PerfManager,
		QuerySpec: toPerfQuerySpecs(batch),
	}
	res, err := methods.QueryPerf(ctx, s.vim, &req)
	if err != nil {
		return nil, err
	}

	if len(res.Returnval) != len(batch) {
		s.logger.Debug("QueryPerf result count differs from batch size",
			zap.Int("batch", len(batch)),
			zap.Int("results", len(res.Returnval)))
	}
	return fromEntityMetrics(res.Returnval, len(batch)), nil
}

func toPerfQuerySpecs(batch []perf.QuerySpec) []types.PerfQuerySpec {
	specs := make([]types.PerfQuerySpec, 0, len(batch))
	for _, q := range batch {
		specs = append(specs, types.PerfQuerySpec{
			Entity: fromRef(q.Host.Ref),
			MetricId: []types.PerfMetricId{{
				CounterId: int32(q.Counter),
				Instance:  q.Instance,
			}},
			IntervalId: q.Window.IntervalID,
			MaxSample:  q.Window.MaxSamples,
			Format:     string(types.PerfFormatNormal),
		})
	}
	return specs
}

// fromEntityMetrics converts the response positionally into n results.
// CSV-formatted or missing entries become nil.
func fromEntityMetrics(vals []types.BasePerfEntityMetricBase, n int) []*perf.RawResult {
	out := make([]*perf.RawResult, n)
	for i := 0; i < n && i < len(vals); i++ {
		m, ok := vals[i].(*types.PerfEntityMetric)
		if !ok || m == nil {
			continue
		}
		out[i] = fromEntityMetric(m)
	}
	return out
}

func fromEntityMetric(m *types.PerfEntityMetric) *perf.RawResult {
	r := &perf.RawResult{}
	if len(m.SampleInfo) > 0 {
		r.Timestamps = make([]time.Time, 0, len(m.SampleInfo))
		for _, info := range m.SampleInfo {
			r.Timestamps = append(r.Timestamps, info.Timestamp)
		}
	}
	for _, v := range m.Value {
		series, ok := v.(*types.PerfMetricIntSeries)
		if !ok || series == nil {
			r.Values = append(r.Values, nil)
			continue
		}
		r.Values = append(r.Values, series.Value)
	}
	return r
}
