// Package stats computes the summary statistics that feed the forecast
// feature vectors.
package stats

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Percentiles are the percentile ranks reported in every Summary.
var Percentiles = [7]float64{5, 10, 25, 50, 75, 90, 95}

// SummaryLen is the number of values in Summary.Vector.
const SummaryLen = 3 + len(Percentiles)

// Summary describes the distribution of a numeric series. The zero
// Summary is returned for an empty series so feature vectors keep their
// shape for paths with too few samples.
type Summary struct {
	Count       int
	Average     float64
	Minimum     float64
	Maximum     float64
	Percentiles [7]float64
}

// Summarize computes mean, min, max and the Percentiles of xs. Percentiles
// use linear interpolation between the closest ranks, rank = p/100*(n-1).
// xs is not modified.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	s := Summary{
		Count:   len(xs),
		Average: stat.Mean(sorted, nil),
		Minimum: floats.Min(sorted),
		Maximum: floats.Max(sorted),
	}
	for i, p := range Percentiles {
		s.Percentiles[i] = Percentile(sorted, p)
	}
	return s
}

// Percentile returns the p-th percentile (0..100) of an ascending slice
// using linear interpolation. It returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Vector returns [avg, min, max, p5, p10, p25, p50, p75, p90, p95].
func (s Summary) Vector() []float64 {
	out := make([]float64, 0, SummaryLen)
	out = append(out, s.Average, s.Minimum, s.Maximum)
	out = append(out, s.Percentiles[:]...)
	return out
}

// String renders the vector as "[v1, v2, ...]".
func (s Summary) String() string {
	return FormatVector(s.Vector())
}

// FormatVector renders values as "[v1, v2, ...]" with the shortest
// round-tripping representation of each value.
func FormatVector(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RouteChangeSummary summarises per-slot route-change counts and carries
// the total number of changes observed over the log.
type RouteChangeSummary struct {
	Summary
	TotalChanges int
}

// Ints converts integer counts to floats for Summarize.
func Ints(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
