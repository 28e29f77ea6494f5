// Package render draws one network usage chart per host.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/Guliveer/vitalis/hostnet/internal/models"
)

// Scale converts the controller's KBps values to the MBps that are plotted.
const Scale = 1000.0

const (
	chartWidth  = 7 * vg.Inch
	chartHeight = 4 * vg.Inch
)

// ScaleValue returns v divided by Scale.
func ScaleValue(v int64) float64 {
	return float64(v) / Scale
}

// Line is one plotted interface: scaled values against sample index.
type Line struct {
	Label  string
	Points plotter.XYs
}

// Lines returns one line per configured interface that has data, in ifaces
// order. Interfaces missing from series or without values are skipped.
func Lines(series models.InterfaceSeries, ifaces []string) []Line {
	lines := make([]Line, 0, len(ifaces))
	for _, iface := range ifaces {
		s, ok := series[iface]
		if !ok || !s.HasData() {
			continue
		}
		pts := make(plotter.XYs, len(s.Values))
		for i, v := range s.Values {
			pts[i].X = float64(i)
			pts[i].Y = ScaleValue(v)
		}
		lines = append(lines, Line{Label: iface + " (MBps)", Points: pts})
	}
	return lines
}

// Renderer writes PNG charts into a directory.
type Renderer struct {
	dir        string
	intervalID int32
	logger     *zap.Logger
}

// New creates a Renderer writing into dir. intervalID only labels the x axis.
func New(dir string, intervalID int32, logger *zap.Logger) *Renderer {
	return &Renderer{dir: dir, intervalID: intervalID, logger: logger}
}

// Chart builds the plot for one host.
func (r *Renderer) Chart(host string, series models.InterfaceSeries, ifaces []string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Network usage for host: " + host
	p.X.Label.Text = fmt.Sprintf("Latest samples (%d s intervals)", r.intervalID)
	p.Y.Label.Text = "Usage MB/s"
	p.Legend.Top = true

	for i, ln := range Lines(series, ifaces) {
		l, err := plotter.NewLine(ln.Points)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", ln.Label, err)
		}
		l.LineStyle.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(ln.Label, l)
	}
	return p, nil
}

// Render writes one chart per host, in host name order, and returns the
// written paths in the same order.
func (r *Renderer) Render(store models.SeriesStore, ifaces []string) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, 0, len(store))
	used := make(map[string]string, len(store))
	for _, host := range store.HostNames() {
		p, err := r.Chart(host, store[host], ifaces)
		if err != nil {
			return paths, fmt.Errorf("chart for %s: %w", host, err)
		}

		name := FileName(host)
		if prev, ok := used[name]; ok {
			name = uniqueName(name, used)
			r.logger.Warn("Chart file name collision, using suffixed name",
				zap.String("host", host),
				zap.String("colliding_host", prev),
				zap.String("file", name))
		}
		used[name] = host

		path := filepath.Join(r.dir, name)
		if err := p.Save(chartWidth, chartHeight, path); err != nil {
			return paths, fmt.Errorf("save chart for %s: %w", host, err)
		}
		r.logger.Debug("Chart written", zap.String("host", host), zap.String("path", path))
		paths = append(paths, path)
	}

	r.logger.Info("Charts rendered", zap.Int("count", len(paths)), zap.String("dir", r.dir))
	return paths, nil
}

// FileName maps a host name to a safe PNG file name.
func FileName(host string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, host)
	if safe == "" {
		safe = "host"
	}
	return safe + ".png"
}

// uniqueName appends -2, -3, ... before the extension until name is unused.
func uniqueName(name string, used map[string]string) string {
	base := strings.TrimSuffix(name, ".png")
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d.png", base, i)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}
