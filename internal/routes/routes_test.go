package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/routecast/internal/traceroute"
)

func probe(ts int64, slot int, ips ...string) *traceroute.ProbeSample {
	s := &traceroute.ProbeSample{SourceIP: "A", DestIP: "B", Timestamp: ts, TimeslotIndex: slot}
	for i, ip := range ips {
		h := traceroute.Hop{IP: ip, MinRTT: float64(10 * (i + 1)), AvgRTT: float64(11 * (i + 1)), MaxRTT: 50, MdevRTT: 1}
		s.Hops = append(s.Hops, h)
		if h.Responded() {
			s.LastHop = h
		}
	}
	return s
}

func observeAll(t *testing.T, tr *Tracker, samples []*traceroute.ProbeSample) {
	t.Helper()
	for _, s := range samples {
		_, err := tr.Observe(s)
		require.NoError(t, err)
	}
}

func TestTracker_RunsAreRunLengthReduced(t *testing.T) {
	samples := []*traceroute.ProbeSample{
		probe(0, 0, "1.1.1.1", "2.2.2.2"),
		probe(10, 0, "1.1.1.1", "2.2.2.2"),
		probe(20, 0, "1.1.1.1", "3.3.3.3"),
		probe(30, 0, "1.1.1.1", "3.3.3.3"),
		probe(40, 0, "1.1.1.1", "2.2.2.2"),
		probe(50, 0, "1.1.1.1"),
	}
	tr := NewTracker(1)
	observeAll(t, tr, samples)

	runs := tr.Runs()
	require.Len(t, runs, 4)
	for k := 1; k < len(runs); k++ {
		assert.False(t, runs[k-1].First.SameRoute(runs[k].First), "adjacent runs %d and %d share a route", k-1, k)
	}

	total := 0
	for _, r := range runs {
		total += r.Samples
	}
	assert.Equal(t, len(samples), total)
	assert.Equal(t, []int64{0, 20, 40, 50}, tr.RunBoundaries())
	assert.Equal(t, []float64{20, 20, 10}, tr.RunDurations())
	assert.Equal(t, 3, tr.TotalChanges())
}

func TestTracker_HopIdentityIgnoresRTT(t *testing.T) {
	a := probe(0, 0, "1.1.1.1")
	b := probe(5, 0, "1.1.1.1")
	b.Hops[0].MinRTT = 999

	tr := NewTracker(1)
	observeAll(t, tr, []*traceroute.ProbeSample{a, b})
	assert.Len(t, tr.Runs(), 1)
}

func TestTracker_SlotChangeCounts(t *testing.T) {
	samples := []*traceroute.ProbeSample{
		// slot 0: single run, no change
		probe(0, 0, "a"),
		probe(1, 0, "a"),
		// slot 1: continuing run plus two run starts
		probe(10, 1, "a"),
		probe(11, 1, "b"),
		probe(12, 1, "c"),
		// slot 2: a run starting exactly at the slot's first probe
		probe(20, 2, "d"),
		probe(21, 2, "d"),
	}
	tr := NewTracker(4)
	observeAll(t, tr, samples)

	assert.Equal(t, []int{0, 2, 0, 0}, tr.SlotChangeCounts())
	assert.Equal(t, 0, tr.SlotChangeCount(-1))
	assert.Equal(t, 0, tr.SlotChangeCount(10))

	var current []int
	for _, s := range samples {
		current = append(current, s.CurrentNbChangesInSlot)
		assert.LessOrEqual(t, s.CurrentNbChangesInSlot, tr.SlotChangeCount(s.TimeslotIndex))
	}
	assert.Equal(t, []int{0, 0, 0, 1, 2, 0, 0}, current)
}

func TestTracker_SlotOutOfRange(t *testing.T) {
	tr := NewTracker(2)
	_, err := tr.Observe(probe(0, 2, "a"))
	assert.Error(t, err)
}

func TestTracker_SingleRunHasNoDurations(t *testing.T) {
	tr := NewTracker(1)
	observeAll(t, tr, []*traceroute.ProbeSample{probe(0, 0, "a"), probe(1, 0, "a")})
	assert.Empty(t, tr.RunDurations())
	assert.Equal(t, 0, tr.TotalChanges())
}

func TestComputeDerived_SingleRoute(t *testing.T) {
	samples := []*traceroute.ProbeSample{
		probe(100, 0, "1.1.1.1"),
		probe(110, 0, "1.1.1.1"),
		probe(120, 0, "1.1.1.1"),
	}
	tr := NewTracker(1)
	observeAll(t, tr, samples)
	require.NoError(t, ComputeDerived(samples, tr))

	require.Len(t, tr.Runs(), 1)
	for i, s := range samples {
		assert.Equal(t, float64(10*i), s.RouteAge)
		assert.False(t, s.ResidualLifetime.Known)
		assert.False(t, s.NbRouteChangesInNextSlot.Known, "single slot has no next slot")
	}
}

func TestComputeDerived_RouteChange(t *testing.T) {
	samples := []*traceroute.ProbeSample{
		probe(100, 0, "1.1.1.1"),
		probe(110, 0, "1.1.1.1"),
		probe(120, 0, "2.2.2.2"),
	}
	tr := NewTracker(1)
	observeAll(t, tr, samples)
	require.NoError(t, ComputeDerived(samples, tr))

	require.Len(t, tr.Runs(), 2)
	assert.Equal(t, traceroute.Known(20), samples[0].ResidualLifetime)
	assert.Equal(t, traceroute.Known(10), samples[1].ResidualLifetime)
	assert.False(t, samples[2].ResidualLifetime.Known)

	assert.Equal(t, 0.0, samples[0].RouteAge)
	assert.Equal(t, 10.0, samples[1].RouteAge)
	assert.Equal(t, 0.0, samples[2].RouteAge)
}

func TestComputeDerived_MonotonicWithinRun(t *testing.T) {
	samples := []*traceroute.ProbeSample{
		probe(0, 0, "a"), probe(7, 0, "a"), probe(9, 0, "a"),
		probe(30, 1, "b"), probe(31, 1, "b"),
		probe(60, 2, "a"),
	}
	tr := NewTracker(3)
	observeAll(t, tr, samples)
	require.NoError(t, ComputeDerived(samples, tr))

	runs := tr.Runs()
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if cur.SameRoute(prev) {
			assert.GreaterOrEqual(t, cur.RouteAge, prev.RouteAge)
			if cur.ResidualLifetime.Known {
				assert.LessOrEqual(t, cur.ResidualLifetime.V, prev.ResidualLifetime.V)
			}
		} else {
			assert.Equal(t, 0.0, cur.RouteAge, "route age resets at a run's first probe")
		}
	}
	for _, s := range samples[:3] {
		assert.Equal(t, float64(runs[1].Start-s.Timestamp), s.ResidualLifetime.V)
	}
}

func TestComputeDerived_SlotFields(t *testing.T) {
	samples := []*traceroute.ProbeSample{
		probe(0, 0, "a"),
		probe(5, 0, "b"),
		probe(10, 1, "b"),
		probe(20, 2, "c"),
	}
	tr := NewTracker(3)
	observeAll(t, tr, samples)
	require.NoError(t, ComputeDerived(samples, tr))

	assert.Equal(t, 1, samples[0].NbRouteChangesInSlot)
	assert.Equal(t, traceroute.Known(0), samples[0].NbRouteChangesInNextSlot)
	assert.Equal(t, 0, samples[2].NbRouteChangesInSlot)
	assert.Equal(t, traceroute.Known(0), samples[2].NbRouteChangesInNextSlot)
	assert.False(t, samples[3].NbRouteChangesInNextSlot.Known)
}

func TestComputeDerived_NextLastHop(t *testing.T) {
	samples := []*traceroute.ProbeSample{
		probe(0, 0, "a"),
		probe(1, 0, "a", "b"),
	}
	tr := NewTracker(1)
	observeAll(t, tr, samples)
	require.NoError(t, ComputeDerived(samples, tr))

	assert.Equal(t, "b", samples[0].NextLastHop.IP)
	assert.True(t, samples[1].NextLastHop.IsZero(), "final probe has no look-ahead hop")
}

func TestComputeDerived_MismatchedSamples(t *testing.T) {
	tr := NewTracker(1)
	observeAll(t, tr, []*traceroute.ProbeSample{probe(0, 0, "a")})
	err := ComputeDerived(nil, tr)
	assert.Error(t, err)
}
