package vsphere

import (
	"context"
	"crypto/tls"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmware/govmomi/simulator"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/types"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/hostnet/internal/config"
	"github.com/Guliveer/vitalis/hostnet/internal/inventory"
	"github.com/Guliveer/vitalis/hostnet/internal/models"
	"github.com/Guliveer/vitalis/hostnet/internal/perf"
)

func TestSDKURL(t *testing.T) {
	tests := []struct {
		address string
		port    int
		want    string
	}{
		{"osi10192.im.dom", 443, "https://osi10192.im.dom:443/sdk"},
		{"10.0.0.5:8443", 443, "https://10.0.0.5:8443/sdk"},
		{"https://vc.example.com/sdk", 443, "https://vc.example.com/sdk"},
		{"vc.example.com", 0, "https://vc.example.com/sdk"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			u, err := sdkURL(config.ControllerConfig{Address: tt.address, Port: tt.port})
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}

	_, err := sdkURL(config.ControllerConfig{Address: "  ", Port: 443})
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, inventory.KindDatacenter, kindOf("Datacenter"))
	assert.Equal(t, inventory.KindFolder, kindOf("Folder"))
	assert.Equal(t, inventory.KindComputeGroup, kindOf("ComputeResource"))
	assert.Equal(t, inventory.KindComputeGroup, kindOf("ClusterComputeResource"))
	assert.Equal(t, inventory.KindHost, kindOf("HostSystem"))
	assert.Equal(t, inventory.Kind(0), kindOf("VirtualMachine"))
	assert.Equal(t, inventory.Kind(0), kindOf("Network"))
}

func TestToDescriptor(t *testing.T) {
	info := types.PerfCounterInfo{
		Key:        143,
		GroupInfo:  &types.ElementDescription{Key: "net"},
		NameInfo:   &types.ElementDescription{Key: "usage"},
		RollupType: types.PerfSummaryTypeAverage,
	}
	d := toDescriptor(info)
	assert.Equal(t, "net.usage.average", d.FullName())
	assert.Equal(t, perf.CounterKey(143), d.Key)

	bare := toDescriptor(types.PerfCounterInfo{Key: 1, RollupType: types.PerfSummaryTypeNone})
	assert.Equal(t, "..none", bare.FullName())
}

func TestToPerfQuerySpecs(t *testing.T) {
	h := models.Host{Name: "h1", Ref: models.Ref{Type: "HostSystem", Value: "host-21"}}
	batch := perf.BuildBatch(h, 143, []string{"vmnic4", "vmnic5"}, perf.Window{IntervalID: 20, MaxSamples: 300})

	specs := toPerfQuerySpecs(batch)

	require.Len(t, specs, 2)
	for i, iface := range []string{"vmnic4", "vmnic5"} {
		assert.Equal(t, types.ManagedObjectReference{Type: "HostSystem", Value: "host-21"}, specs[i].Entity)
		require.Len(t, specs[i].MetricId, 1)
		assert.Equal(t, int32(143), specs[i].MetricId[0].CounterId)
		assert.Equal(t, iface, specs[i].MetricId[0].Instance)
		assert.Equal(t, int32(20), specs[i].IntervalId)
		assert.Equal(t, int32(300), specs[i].MaxSample)
		assert.Equal(t, "normal", specs[i].Format)
	}
}

func TestFromEntityMetrics(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(20 * time.Second)

	vals := []types.BasePerfEntityMetricBase{
		&types.PerfEntityMetric{
			SampleInfo: []types.PerfSampleInfo{{Timestamp: t0, Interval: 20}, {Timestamp: t1, Interval: 20}},
			Value:      []types.BasePerfMetricSeries{&types.PerfMetricIntSeries{Value: []int64{100, 200}}},
		},
		nil,
		&types.PerfEntityMetricCSV{},
		&types.PerfEntityMetric{
			SampleInfo: []types.PerfSampleInfo{{Timestamp: t0, Interval: 20}},
		},
		&types.PerfEntityMetric{},
	}

	got := fromEntityMetrics(vals, 6)

	require.Len(t, got, 6)
	require.NotNil(t, got[0])
	assert.Equal(t, []time.Time{t0, t1}, got[0].Timestamps)
	assert.Equal(t, [][]int64{{100, 200}}, got[0].Values)
	assert.Nil(t, got[1])
	assert.Nil(t, got[2])
	require.NotNil(t, got[3])
	assert.Len(t, got[3].Timestamps, 1)
	assert.Empty(t, got[3].Values)
	require.NotNil(t, got[4])
	assert.Nil(t, got[4].Timestamps)
	assert.Nil(t, got[5])

	s := perf.Normalize(got[3])
	assert.Len(t, s.Timestamps, 1)
	assert.Empty(t, s.Values)
}

func TestFromEntityMetrics_Truncates(t *testing.T) {
	vals := []types.BasePerfEntityMetricBase{&types.PerfEntityMetric{}, &types.PerfEntityMetric{}}
	assert.Len(t, fromEntityMetrics(vals, 1), 1)
}

func TestSession_DiscoverSimulator(t *testing.T) {
	simulator.Test(func(ctx context.Context, c *vim25.Client) {
		s := NewSession(c, zap.NewNop())

		hosts, err := inventory.NewWalker(s, zap.NewNop()).Discover(ctx, s.Root())
		require.NoError(t, err)

		names := make([]string, 0, len(hosts))
		for _, h := range hosts {
			assert.Equal(t, "HostSystem", h.Ref.Type)
			names = append(names, h.Name)
		}
		sort.Strings(names)
		assert.Equal(t, []string{"DC0_C0_H0", "DC0_C0_H1", "DC0_C0_H2", "DC0_H0"}, names)
	})
}

func TestSession_CountersSimulator(t *testing.T) {
	simulator.Test(func(ctx context.Context, c *vim25.Client) {
		s := NewSession(c, zap.NewNop())

		counters, err := s.Counters(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, counters)

		cat := perf.NewCatalog(counters)
		key, err := cat.Resolve("cpu.usage", "average")
		require.NoError(t, err)
		assert.NotZero(t, key)

		_, err = cat.Resolve("cpu.usage", "bogus")
		assert.ErrorIs(t, err, perf.ErrCounterNotFound)
	})
}

func TestSession_QueryPerfSimulator(t *testing.T) {
	simulator.Test(func(ctx context.Context, c *vim25.Client) {
		s := NewSession(c, zap.NewNop())

		hosts, err := inventory.NewWalker(s, zap.NewNop()).Discover(ctx, s.Root())
		require.NoError(t, err)
		require.NotEmpty(t, hosts)

		counters, err := s.Counters(ctx)
		require.NoError(t, err)
		key, err := perf.NewCatalog(counters).Resolve("cpu.usage", "average")
		require.NoError(t, err)

		batch := perf.BuildBatch(hosts[0], key, []string{"", "vmnic0"}, perf.Window{IntervalID: 20, MaxSamples: 5})
		results, err := s.QueryPerf(ctx, batch)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})
}

func TestConnect_Simulator(t *testing.T) {
	model := simulator.ESX()
	defer model.Remove()
	require.NoError(t, model.Create())

	model.Service.TLS = new(tls.Config)
	srv := model.Service.NewServer()
	defer srv.Close()

	pass, _ := srv.URL.User.Password()
	cfg := config.ControllerConfig{
		Address:            srv.URL.Host,
		Port:               443,
		Username:           srv.URL.User.Username(),
		InsecureSkipVerify: true,
	}

	ctx := context.Background()
	s, err := Connect(ctx, cfg, pass, zap.NewNop())
	require.NoError(t, err)

	hosts, err := inventory.NewWalker(s, zap.NewNop()).Discover(ctx, s.Root())
	require.NoError(t, err)
	assert.Len(t, hosts, 1)

	assert.NoError(t, s.Close(ctx))
	assert.NoError(t, s.Close(ctx))
}
