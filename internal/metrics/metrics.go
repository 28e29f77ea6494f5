// Package metrics records what each collection run did, for scraping through
// the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Guliveer/vitalis/hostnet/internal/models"
)

const namespace = "hostnet"

// Recorder holds the run metrics in a private registry.
type Recorder struct {
	reg *prometheus.Registry

	hostsDiscovered prometheus.Gauge
	hostsCollected  prometheus.Counter
	hostFailures    *prometheus.CounterVec
	samples         *prometheus.GaugeVec
	runs            *prometheus.CounterVec
	runDuration     prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		hostsDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hosts_discovered",
			Help:      "Hosts selected for collection in the last run.",
		}),
		hostsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hosts_collected_total",
			Help:      "Hosts whose query batch succeeded.",
		}),
		hostFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_query_failures_total",
			Help:      "Hosts whose query batch failed.",
		}, []string{"host"}),
		samples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "series_samples",
			Help:      "Samples returned in the last run per host and interface.",
		}, []string{"host", "interface"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Collection runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last collection run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	r.reg.MustRegister(
		r.hostsDiscovered,
		r.hostsCollected,
		r.hostFailures,
		r.samples,
		r.runs,
		r.runDuration,
		r.lastSuccess,
	)
	return r
}

// Registry exposes the underlying registry as a Gatherer.
func (r *Recorder) Registry() prometheus.Gatherer {
	return r.reg
}

// HostsDiscovered sets the number of hosts selected for collection.
func (r *Recorder) HostsDiscovered(n int) {
	r.hostsDiscovered.Set(float64(n))
}

// HostCollected records a successful host and its per-interface sample counts.
func (r *Recorder) HostCollected(h models.Host, series models.InterfaceSeries) {
	r.hostsCollected.Inc()
	for iface, s := range series {
		r.samples.WithLabelValues(h.Name, iface).Set(float64(len(s.Values)))
	}
}

// HostFailed records a failed host batch.
func (r *Recorder) HostFailed(h models.Host, _ error) {
	r.hostFailures.WithLabelValues(h.Name).Inc()
}

// RunFinished records the outcome of one run.
func (r *Recorder) RunFinished(start time.Time, err error) {
	now := time.Now()
	r.runDuration.Set(now.Sub(start).Seconds())
	if err != nil {
		r.runs.WithLabelValues("error").Inc()
		return
	}
	r.runs.WithLabelValues("success").Inc()
	r.lastSuccess.Set(float64(now.Unix()))
}

// ResetSeries clears the per-series gauges before a new run.
func (r *Recorder) ResetSeries() {
	r.samples.Reset()
}

// WriteTextfile writes all metrics in Prometheus text format. The write is
// atomic, as the textfile collector requires.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
