// Package timeslot partitions an observation horizon into fixed-width,
// half-open time windows and maps timestamps onto them.
package timeslot

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/routecast/internal/units"
)

// Indexer maps unix timestamps to timeslot indices. Slot i covers
// [Boundaries()[i], Boundaries()[i+1]).
type Indexer struct {
	t0         int64
	slotHours  float64
	boundaries []int64
}

// New builds the slot boundaries t0 + k*D*3600 for k = 0..ceil(L/D),
// where D is slotHours and L is horizonHours.
func New(t0 int64, slotHours, horizonHours float64) (*Indexer, error) {
	if slotHours <= 0 || math.IsNaN(slotHours) || math.IsInf(slotHours, 0) {
		return nil, fmt.Errorf("timeslot duration must be > 0 hours, got %v", slotHours)
	}
	if horizonHours <= 0 || math.IsNaN(horizonHours) || math.IsInf(horizonHours, 0) {
		return nil, fmt.Errorf("observation horizon must be > 0 hours, got %v", horizonHours)
	}

	n := int(math.Ceil(horizonHours / slotHours))
	width := slotHours * units.SecondsPerHour
	boundaries := make([]int64, n+1)
	for k := range boundaries {
		boundaries[k] = t0 + int64(math.Round(float64(k)*width))
	}
	return &Indexer{t0: t0, slotHours: slotHours, boundaries: boundaries}, nil
}

// Start returns the first boundary (the first probe's timestamp).
func (x *Indexer) Start() int64 { return x.t0 }

// SlotHours returns the slot width in hours.
func (x *Indexer) SlotHours() float64 { return x.slotHours }

// NumSlots returns the number of slots tiling the horizon.
func (x *Indexer) NumSlots() int { return len(x.boundaries) - 1 }

// Boundaries returns a copy of the slot boundaries.
func (x *Indexer) Boundaries() []int64 {
	out := make([]int64, len(x.boundaries))
	copy(out, x.boundaries)
	return out
}

// Bounds returns the half-open interval [lo, hi) of slot i.
func (x *Indexer) Bounds(i int) (lo, hi int64) {
	return x.boundaries[i], x.boundaries[i+1]
}

// Index returns the largest i with Boundaries()[i] <= t. Timestamps before
// the first boundary map to slot 0 and timestamps at or past the end of
// the horizon map to the last slot.
func (x *Indexer) Index(t int64) int {
	// first boundary strictly greater than t
	i := sort.Search(len(x.boundaries), func(k int) bool { return x.boundaries[k] > t })
	idx := i - 1
	if idx < 0 {
		return 0
	}
	if last := x.NumSlots() - 1; idx > last {
		return last
	}
	return idx
}
