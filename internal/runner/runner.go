// Package runner wires one collection run together: credential, session,
// discovery, counter resolution, collection, rendering and run metrics.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/hostnet/internal/collector"
	"github.com/Guliveer/vitalis/hostnet/internal/config"
	"github.com/Guliveer/vitalis/hostnet/internal/credential"
	"github.com/Guliveer/vitalis/hostnet/internal/inventory"
	"github.com/Guliveer/vitalis/hostnet/internal/metrics"
	"github.com/Guliveer/vitalis/hostnet/internal/models"
	"github.com/Guliveer/vitalis/hostnet/internal/perf"
)

var (
	// ErrConfiguration marks failures that make the whole run pointless:
	// unreadable credential, rejected login, unknown counter name.
	ErrConfiguration = errors.New("configuration failure")

	// ErrDiscoveryEmpty is returned when no host is left after discovery
	// and allowlist filtering.
	ErrDiscoveryEmpty = errors.New("no matching hosts discovered")
)

const closeTimeout = 10 * time.Second

// Controller is an open controller session.
type Controller interface {
	inventory.Source
	collector.QueryService

	Root() inventory.Node
	Counters(ctx context.Context) ([]perf.CounterDescriptor, error)
	Close(ctx context.Context) error
}

// Connector opens a session using the given password.
type Connector func(ctx context.Context, secret string) (Controller, error)

// ChartRenderer draws the finished store.
type ChartRenderer interface {
	Render(store models.SeriesStore, ifaces []string) ([]string, error)
}

// Result describes a finished run.
type Result struct {
	RunID  string
	Hosts  []models.Host
	Failed []models.Host
	Store  models.SeriesStore
	Charts []string
}

// Runner executes collection runs. It is safe to call RunOnce repeatedly,
// but not concurrently.
type Runner struct {
	cfg        *config.Config
	logger     *zap.Logger
	connect    Connector
	renderer   ChartRenderer
	recorder   *metrics.Recorder
	readSecret func(string) (string, error)
}

// New creates a Runner. recorder may be nil.
func New(cfg *config.Config, logger *zap.Logger, connect Connector, renderer ChartRenderer, recorder *metrics.Recorder) *Runner {
	return &Runner{
		cfg:        cfg,
		logger:     logger,
		connect:    connect,
		renderer:   renderer,
		recorder:   recorder,
		readSecret: credential.ReadSecret,
	}
}

// RunOnce performs one full collection run. Fatal failures wrap
// ErrConfiguration or ErrDiscoveryEmpty; per-host query failures do not fail
// the run and are listed in Result.Failed.
func (r *Runner) RunOnce(ctx context.Context) (res *Result, err error) {
	runID := uuid.NewString()
	log := r.logger.With(zap.String("run_id", runID))
	start := time.Now()

	if r.recorder != nil {
		r.recorder.ResetSeries()
		defer func() {
			r.recorder.RunFinished(start, err)
			r.writeMetrics(log)
		}()
	}

	secret, err := r.readSecret(r.cfg.Controller.PasswordFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	ctrl, err := r.connect(ctx, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrConfiguration, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if cerr := ctrl.Close(closeCtx); cerr != nil {
			log.Warn("Failed to close controller session", zap.Error(cerr))
		}
	}()

	hosts, err := r.discover(ctx, ctrl, log)
	if err != nil {
		return nil, err
	}

	col := r.cfg.Collection
	counters, err := ctrl.Counters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	key, err := perf.NewCatalog(counters).Resolve(col.Counter, col.Rollup)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	log.Info("Counter resolved",
		zap.String("counter", col.Counter+"."+col.Rollup),
		zap.Int32("key", int32(key)),
		zap.Int("catalog_size", len(counters)))

	res = &Result{RunID: runID, Hosts: hosts}

	mc := collector.New(ctrl, collector.Options{
		Concurrency: col.Concurrency,
		QueryRate:   col.QueryRate,
	}, log)
	mc.OnHostFailed(func(h models.Host, err error) {
		res.Failed = append(res.Failed, h)
		if r.recorder != nil {
			r.recorder.HostFailed(h, err)
		}
	})
	if r.recorder != nil {
		mc.OnHostCollected(r.recorder.HostCollected)
	}

	window := perf.Window{IntervalID: col.IntervalID, MaxSamples: col.MaxSamples}
	store, err := mc.Collect(ctx, hosts, key, col.Interfaces, window)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	res.Store = store

	log.Info("Collection finished",
		zap.Int("hosts", len(hosts)),
		zap.Int("failed", len(res.Failed)),
		zap.Int("samples", store.SampleCount()))
	if len(store) == 0 {
		log.Warn("No host returned data, nothing to render")
		return res, nil
	}

	charts, err := r.renderer.Render(store, col.Interfaces)
	res.Charts = charts
	if err != nil {
		return res, fmt.Errorf("render: %w", err)
	}
	return res, nil
}

// discover walks the inventory, applies the allowlist and orders hosts by
// name then reference so duplicate handling is deterministic.
func (r *Runner) discover(ctx context.Context, ctrl Controller, log *zap.Logger) ([]models.Host, error) {
	all, err := inventory.NewWalker(ctrl, log).Discover(ctx, ctrl.Root())
	if err != nil {
		return nil, fmt.Errorf("discover hosts: %w", err)
	}

	allow := r.cfg.Collection.Hosts
	hosts := inventory.FilterByName(all, allow)
	sort.Slice(hosts, func(i, j int) bool {
		if hosts[i].Name != hosts[j].Name {
			return hosts[i].Name < hosts[j].Name
		}
		return hosts[i].Ref.Value < hosts[j].Ref.Value
	})

	if len(allow) > 0 {
		found := make(map[string]bool, len(hosts))
		for _, h := range hosts {
			found[h.Name] = true
		}
		for _, name := range allow {
			if !found[name] {
				log.Warn("Allowlisted host not found in inventory", zap.String("host", name))
			}
		}
	}

	if r.recorder != nil {
		r.recorder.HostsDiscovered(len(hosts))
	}
	log.Info("Hosts discovered",
		zap.Int("inventory", len(all)),
		zap.Int("selected", len(hosts)))

	if len(hosts) == 0 {
		return nil, ErrDiscoveryEmpty
	}
	return hosts, nil
}

func (r *Runner) writeMetrics(log *zap.Logger) {
	path := r.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := r.recorder.WriteTextfile(path); err != nil {
		log.Error("Failed to write metrics textfile", zap.String("path", path), zap.Error(err))
	}
}
