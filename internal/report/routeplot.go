// Package report renders a path's route history for inspection: a PNG of
// last-hop RTT over time with route changes marked, and an HTML bar chart
// of route changes per timeslot.
package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/pipeline"
	"github.com/banshee-data/routecast/internal/security"
	"github.com/banshee-data/routecast/internal/units"
)

var (
	rttColor    = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	changeColor = color.RGBA{R: 200, G: 40, B: 40, A: 255}
)

// RoutePlot draws the last-hop RTT of every probe against hours since the
// first probe. Probes that opened a new route are drawn as markers on top
// of the series.
func RoutePlot(res *pipeline.Result, metric string) (*plot.Plot, error) {
	if res == nil || len(res.Samples) == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}
	t0 := res.Samples[0].Timestamp

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s -> %s", res.SourceIP, res.DestIP)
	p.X.Label.Text = "Hours since first probe"
	p.Y.Label.Text = fmt.Sprintf("Last hop RTT %s (ms)", metric)

	rtt := make(plotter.XYs, 0, len(res.Samples))
	for _, s := range res.Samples {
		v := s.LastHop.RTT(metric)
		if !v.Known {
			continue
		}
		rtt = append(rtt, plotter.XY{X: hoursSince(t0, s.Timestamp), Y: v.V})
	}

	var changes plotter.XYs
	for i, r := range res.Runs {
		if i == 0 {
			continue
		}
		v := r.First.LastHop.RTT(metric)
		if !v.Known {
			continue
		}
		changes = append(changes, plotter.XY{X: hoursSince(t0, r.Start), Y: v.V})
	}

	if len(rtt) > 0 {
		line, err := plotter.NewLine(rtt)
		if err != nil {
			return nil, err
		}
		line.Color = rttColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("rtt", line)
	}
	if len(changes) > 0 {
		sc, err := plotter.NewScatter(changes)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = changeColor
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("route change (%d)", res.TotalChanges()), sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func hoursSince(t0, t int64) float64 {
	return float64(t-t0) / units.SecondsPerHour
}

// RoutePlotFileName returns routes_<src>_<dst>.png.
func RoutePlotFileName(src, dst string) string {
	return fmt.Sprintf("routes_%s_%s.png", security.SanitizeFilename(src), security.SanitizeFilename(dst))
}

// WriteRoutePlot renders the route plot of res as a PNG in dir and
// returns the file's path.
func WriteRoutePlot(fsys fsutil.FileSystem, dir string, res *pipeline.Result, metric string) (string, error) {
	p, err := RoutePlot(res, metric)
	if err != nil {
		return "", err
	}
	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return "", fmt.Errorf("failed to render route plot: %w", err)
	}
	return writeFile(fsys, dir, RoutePlotFileName(res.SourceIP, res.DestIP), func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}
