package routes

import (
	"fmt"

	"github.com/banshee-data/routecast/internal/traceroute"
)

// ComputeDerived annotates every probe with its route age, residual
// lifetime, slot change counts and the look-ahead last hop. samples must
// be exactly the probes fed to t, in the same order.
//
// NextLastHop of the final probe is left as the zero Hop (unknown) rather
// than reusing the probe's own last hop.
func ComputeDerived(samples []*traceroute.ProbeSample, t *Tracker) error {
	if len(samples) != t.Observed() {
		return fmt.Errorf("tracker observed %d probes, got %d samples", t.Observed(), len(samples))
	}

	runs := t.Runs()
	for i, s := range samples {
		ri := t.runOf(i)
		s.RouteAge = float64(s.Timestamp - runs[ri].Start)
		if ri+1 < len(runs) {
			s.ResidualLifetime = traceroute.Known(float64(runs[ri+1].Start - s.Timestamp))
		} else {
			s.ResidualLifetime = traceroute.Unknown()
		}

		s.NbRouteChangesInSlot = t.SlotChangeCount(s.TimeslotIndex)
		if next := s.TimeslotIndex + 1; next < t.NumSlots() {
			s.NbRouteChangesInNextSlot = traceroute.Known(float64(t.SlotChangeCount(next)))
		} else {
			s.NbRouteChangesInNextSlot = traceroute.Unknown()
		}

		if i+1 < len(samples) {
			s.NextLastHop = samples[i+1].LastHop
		} else {
			s.NextLastHop = traceroute.Hop{}
		}
	}
	return nil
}
