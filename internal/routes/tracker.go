// Package routes reconstructs the route history of a path: it collapses
// consecutive identical routes into runs, counts route changes per
// timeslot and derives the per-probe route age, residual lifetime and
// slot-relative change counts.
package routes

import (
	"fmt"

	"github.com/banshee-data/routecast/internal/traceroute"
)

// Run is a maximal streak of consecutive probes with the same route,
// represented by its first probe.
type Run struct {
	Index   int
	First   *traceroute.ProbeSample
	Start   int64 // timestamp of First
	Samples int
}

// observation is what the tracker recorded for one probe.
type observation struct {
	run     int
	slotPos int // position of the probe's entry in its slot bucket
}

// Tracker maintains the run list and, per timeslot, the ordered list of
// route entries seen in that slot. A slot's first probe always opens an
// entry so that a route carried over from the previous slot is counted
// as the slot's baseline rather than as a change.
type Tracker struct {
	runs  []Run
	slots [][]*traceroute.ProbeSample
	obs   []observation
}

// NewTracker creates a tracker for numSlots timeslots.
func NewTracker(numSlots int) *Tracker {
	return &Tracker{slots: make([][]*traceroute.ProbeSample, numSlots)}
}

// Observe feeds the next probe in chronological order. The probe's
// TimeslotIndex must already be set. It reports whether the probe starts
// a new run and sets the probe's CurrentNbChangesInSlot.
func (t *Tracker) Observe(s *traceroute.ProbeSample) (bool, error) {
	if s.TimeslotIndex < 0 || s.TimeslotIndex >= len(t.slots) {
		return false, fmt.Errorf("timeslot index %d out of range [0,%d)", s.TimeslotIndex, len(t.slots))
	}

	newRun := len(t.runs) == 0 || !s.SameRoute(t.runs[len(t.runs)-1].First)
	if newRun {
		t.runs = append(t.runs, Run{Index: len(t.runs), First: s, Start: s.Timestamp})
	}
	t.runs[len(t.runs)-1].Samples++

	bucket := t.slots[s.TimeslotIndex]
	if len(bucket) == 0 || newRun {
		bucket = append(bucket, s)
		t.slots[s.TimeslotIndex] = bucket
	}

	pos := len(bucket) - 1
	t.obs = append(t.obs, observation{run: len(t.runs) - 1, slotPos: pos})
	s.CurrentNbChangesInSlot = pos
	return newRun, nil
}

// Observed returns the number of probes fed so far.
func (t *Tracker) Observed() int { return len(t.obs) }

// Runs returns the deduplicated route history in chronological order.
func (t *Tracker) Runs() []Run { return t.runs }

// NumSlots returns the number of timeslots tracked.
func (t *Tracker) NumSlots() int { return len(t.slots) }

// SlotChangeCount returns the number of route changes observed in slot i.
func (t *Tracker) SlotChangeCount(i int) int {
	if i < 0 || i >= len(t.slots) {
		return 0
	}
	if n := len(t.slots[i]); n > 1 {
		return n - 1
	}
	return 0
}

// SlotChangeCounts returns the route-change count of every slot.
func (t *Tracker) SlotChangeCounts() []int {
	out := make([]int, len(t.slots))
	for i := range t.slots {
		out[i] = t.SlotChangeCount(i)
	}
	return out
}

// TotalChanges returns the number of route changes over the whole log.
func (t *Tracker) TotalChanges() int {
	if len(t.runs) < 2 {
		return 0
	}
	return len(t.runs) - 1
}

// RunBoundaries returns the start timestamp of every run.
func (t *Tracker) RunBoundaries() []int64 {
	out := make([]int64, len(t.runs))
	for i, r := range t.runs {
		out[i] = r.Start
	}
	return out
}

// RunDurations returns how long each run lasted, in seconds. The last run
// is excluded since its end has not been observed.
func (t *Tracker) RunDurations() []float64 {
	if len(t.runs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(t.runs)-1)
	for k := 0; k < len(t.runs)-1; k++ {
		out = append(out, float64(t.runs[k+1].Start-t.runs[k].Start))
	}
	return out
}

// runOf returns the run index recorded for the i-th observed probe.
func (t *Tracker) runOf(i int) int { return t.obs[i].run }
