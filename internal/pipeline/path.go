// Package pipeline runs the analysis of a single monitored path: it parses
// the probe log, buckets probes into timeslots, tracks route runs, derives
// per-probe fields and computes the path-wide summaries.
//
// This package is the composition root for the analysis packages
// (traceroute, timeslot, routes, stats, features); none of them import it.
// Each Path owns all of its state, so independent paths never share
// trackers.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/routecast/internal/features"
	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/monitoring"
	"github.com/banshee-data/routecast/internal/routes"
	"github.com/banshee-data/routecast/internal/timeslot"
	"github.com/banshee-data/routecast/internal/traceroute"
	"github.com/banshee-data/routecast/internal/units"
)

// Options configures a path analysis.
type Options struct {
	SlotHours    float64
	HorizonHours float64
	RTTMetric    string
	Location     *time.Location // zone of TIMESTAMP: values, UTC when nil
}

// Result is the reconstructed history of one path.
type Result struct {
	SourceIP string
	DestIP   string

	Samples          []*traceroute.ProbeSample
	Runs             []routes.Run
	SlotChangeCounts []int
	Summaries        features.Summaries

	Indexer *timeslot.Indexer
	Tracker *routes.Tracker
}

// TotalChanges returns the number of route changes over the log.
func (r *Result) TotalChanges() int { return r.Tracker.TotalChanges() }

// Path is the pipeline for one path's log. A Path is single-use and not
// safe for concurrent use.
type Path struct {
	opts    Options
	indexer *timeslot.Indexer
	tracker *routes.Tracker
}

// New creates a pipeline with the given options.
func New(opts Options) *Path {
	if opts.RTTMetric == "" {
		opts.RTTMetric = units.RTTMin
	}
	return &Path{opts: opts}
}

// Run parses the log read from r and reconstructs the path history.
// It returns a *traceroute.ParseError for malformed logs and
// traceroute.ErrEmptyPath when the log holds no complete probe.
func (p *Path) Run(r io.Reader) (*Result, error) {
	if p.opts.SlotHours <= 0 || p.opts.HorizonHours <= 0 {
		return nil, fmt.Errorf("timeslot and observation durations must be > 0, got %v and %v", p.opts.SlotHours, p.opts.HorizonHours)
	}
	p.indexer = nil
	p.tracker = nil

	parser := traceroute.NewParser(traceroute.ParserOptions{
		Location:   p.opts.Location,
		OnFinalize: p.finalize,
	})
	samples, err := parser.Parse(r)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, traceroute.ErrEmptyPath
	}

	if err := routes.ComputeDerived(samples, p.tracker); err != nil {
		return nil, fmt.Errorf("failed to derive route metrics: %w", err)
	}

	last := samples[len(samples)-1]
	res := &Result{
		SourceIP:         last.SourceIP,
		DestIP:           last.DestIP,
		Samples:          samples,
		Runs:             p.tracker.Runs(),
		SlotChangeCounts: p.tracker.SlotChangeCounts(),
		Indexer:          p.indexer,
		Tracker:          p.tracker,
	}
	res.Summaries = features.Summarize(samples, p.tracker.RunDurations(), res.SlotChangeCounts, p.tracker.TotalChanges(), p.opts.RTTMetric)

	monitoring.PathLogf(res.SourceIP, res.DestIP, "%d samples, %d runs, %d route changes over %d slots",
		len(samples), len(res.Runs), res.TotalChanges(), p.indexer.NumSlots())
	return res, nil
}

// finalize is called by the parser for every completed probe. The first
// probe seeds the timeslot boundaries.
func (p *Path) finalize(s *traceroute.ProbeSample) error {
	if p.indexer == nil {
		idx, err := timeslot.New(s.Timestamp, p.opts.SlotHours, p.opts.HorizonHours)
		if err != nil {
			return err
		}
		p.indexer = idx
		p.tracker = routes.NewTracker(idx.NumSlots())
	}
	s.TimeslotIndex = p.indexer.Index(s.Timestamp)
	_, err := p.tracker.Observe(s)
	return err
}

// AnalyzeFile opens name on fsys, runs a new pipeline over it and closes
// the file.
func AnalyzeFile(fsys fsutil.FileSystem, name string, opts Options) (*Result, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	res, err := New(opts).Run(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}
