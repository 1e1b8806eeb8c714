// Package features turns annotated probe samples into the feature rows
// consumed by the forecast models.
//
// Every probe yields three groups, one per forecast:
//
//	residual lifetime: [route duration summary..., routeAge]                       -> residualLifetime
//	route changes:     [change count summary..., total, inSlot, hasChange, current] -> changes in next slot
//	latency:           [rtt summary..., lastHop RTT]                                -> next probe's lastHop RTT
package features

import (
	"errors"

	"github.com/banshee-data/routecast/internal/stats"
	"github.com/banshee-data/routecast/internal/traceroute"
)

// Group identifies one of the three forecast feature groups.
type Group int

const (
	ResidualLifetime Group = iota
	RouteChanges
	NextRTT

	NumGroups = 3
)

func (g Group) String() string {
	switch g {
	case ResidualLifetime:
		return "residual_lifetime"
	case RouteChanges:
		return "route_changes"
	case NextRTT:
		return "next_rtt"
	}
	return "unknown"
}

// Groups lists the feature groups in output order.
var Groups = [NumGroups]Group{ResidualLifetime, RouteChanges, NextRTT}

// ErrInvalidFeatures is returned when the most recent probe of a path
// cannot produce a complete prediction row.
var ErrInvalidFeatures = errors.New("latest probe has invalid features")

// Summaries are the path-wide statistics shared by every row.
type Summaries struct {
	RouteDuration stats.Summary
	RouteChanges  stats.RouteChangeSummary
	RTT           stats.Summary
}

// Summarize computes the path-wide statistics: the distribution of run
// durations, of per-slot route-change counts, and of the last-hop RTT
// (metric selects which RTT statistic) over probes whose last hop answered.
func Summarize(samples []*traceroute.ProbeSample, runDurations []float64, slotCounts []int, totalChanges int, metric string) Summaries {
	var rtts []float64
	for _, s := range samples {
		if v := s.LastHop.RTT(metric); v.Known {
			rtts = append(rtts, v.V)
		}
	}
	return Summaries{
		RouteDuration: stats.Summarize(runDurations),
		RouteChanges: stats.RouteChangeSummary{
			Summary:      stats.Summarize(stats.Ints(slotCounts)),
			TotalChanges: totalChanges,
		},
		RTT: stats.Summarize(rtts),
	}
}

// GroupRow is the feature vector and target of one group for one probe.
type GroupRow struct {
	Features []float64
	Target   traceroute.Value

	featuresValid bool
}

// FeaturesValid reports whether every feature of the group is known.
func (g GroupRow) FeaturesValid() bool { return g.featuresValid }

// Valid reports whether every feature and the target are known.
func (g GroupRow) Valid() bool { return g.featuresValid && g.Target.Known }

// Row holds the three groups built for one probe.
type Row struct {
	Index  int
	Sample *traceroute.ProbeSample
	Groups [NumGroups]GroupRow
}

// Valid reports whether every group of the row is usable for training.
func (r Row) Valid() bool {
	for _, g := range r.Groups {
		if !g.Valid() {
			return false
		}
	}
	return true
}

// FeaturesValid reports whether every group's features are known.
func (r Row) FeaturesValid() bool {
	for _, g := range r.Groups {
		if !g.FeaturesValid() {
			return false
		}
	}
	return true
}

// Assembler builds feature rows. RTTMetric selects the RTT statistic of
// the latency group; see package units.
type Assembler struct {
	RTTMetric string
}

// NewAssembler creates an assembler for the given RTT metric.
func NewAssembler(rttMetric string) *Assembler {
	return &Assembler{RTTMetric: rttMetric}
}

// BuildRow assembles the three groups for sample s.
func (a *Assembler) BuildRow(i int, s *traceroute.ProbeSample, sum Summaries) Row {
	row := Row{Index: i, Sample: s}

	residual := append(sum.RouteDuration.Vector(), s.RouteAge)
	row.Groups[ResidualLifetime] = GroupRow{
		Features:      residual,
		Target:        s.ResidualLifetime,
		featuresValid: s.RouteAge >= 0,
	}

	hasChange := 0.0
	if s.NbRouteChangesInSlot > 0 {
		hasChange = 1
	}
	changes := append(sum.RouteChanges.Vector(),
		float64(sum.RouteChanges.TotalChanges),
		float64(s.NbRouteChangesInSlot),
		hasChange,
		float64(s.CurrentNbChangesInSlot),
	)
	row.Groups[RouteChanges] = GroupRow{
		Features:      changes,
		Target:        s.NbRouteChangesInNextSlot,
		featuresValid: s.NbRouteChangesInSlot >= 0 && s.CurrentNbChangesInSlot >= 0,
	}

	last := s.LastHop.RTT(a.RTTMetric)
	row.Groups[NextRTT] = GroupRow{
		Features:      append(sum.RTT.Vector(), last.V),
		Target:        s.NextLastHop.RTT(a.RTTMetric),
		featuresValid: last.Known,
	}

	return row
}

// TrainingSet holds the rows of every probe that is fully valid.
type TrainingSet struct {
	Rows    []Row
	Dropped int
}

// Training builds a row for every probe and keeps only those whose
// features and targets are known in all three groups.
func (a *Assembler) Training(samples []*traceroute.ProbeSample, sum Summaries) *TrainingSet {
	ts := &TrainingSet{}
	for i, s := range samples {
		row := a.BuildRow(i, s, sum)
		if !row.Valid() {
			ts.Dropped++
			continue
		}
		ts.Rows = append(ts.Rows, row)
	}
	return ts
}

// Matrix returns the feature matrix and target vector of group g.
func (ts *TrainingSet) Matrix(g Group) ([][]float64, []float64) {
	x := make([][]float64, len(ts.Rows))
	y := make([]float64, len(ts.Rows))
	for i, r := range ts.Rows {
		x[i] = r.Groups[g].Features
		y[i] = r.Groups[g].Target.V
	}
	return x, y
}

// PredictionRow is the feature vector of each group for the most recent
// probe of a path.
type PredictionRow struct {
	SourceIP  string
	DestIP    string
	Timestamp int64
	Features  [NumGroups][]float64
}

// Prediction builds the row for the most recent probe. Only the features
// are checked since the targets lie in the future.
func (a *Assembler) Prediction(samples []*traceroute.ProbeSample, sum Summaries) (*PredictionRow, error) {
	if len(samples) == 0 {
		return nil, traceroute.ErrEmptyPath
	}
	i := len(samples) - 1
	s := samples[i]
	row := a.BuildRow(i, s, sum)
	if !row.FeaturesValid() {
		return nil, ErrInvalidFeatures
	}
	pr := &PredictionRow{SourceIP: s.SourceIP, DestIP: s.DestIP, Timestamp: s.Timestamp}
	for _, g := range Groups {
		pr.Features[g] = row.Groups[g].Features
	}
	return pr, nil
}
