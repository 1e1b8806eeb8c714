package features

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/stats"
	"github.com/banshee-data/routecast/internal/timeutil"
	"github.com/banshee-data/routecast/internal/traceroute"
	"github.com/banshee-data/routecast/internal/units"
)

func hop(ip string, minRTT, avgRTT float64) traceroute.Hop {
	return traceroute.Hop{IP: ip, MinRTT: minRTT, AvgRTT: avgRTT, MaxRTT: avgRTT + 1, MdevRTT: 0.5}
}

// annotated returns three probes with derived fields filled in as the
// routes package would for a path with one change at t=20.
func annotated() []*traceroute.ProbeSample {
	s0 := &traceroute.ProbeSample{SourceIP: "A", DestIP: "B", Timestamp: 0, LastHop: hop("1.1.1.1", 10, 12),
		RouteAge: 0, ResidualLifetime: traceroute.Known(20),
		NbRouteChangesInSlot: 1, CurrentNbChangesInSlot: 0, NbRouteChangesInNextSlot: traceroute.Known(0)}
	s1 := &traceroute.ProbeSample{SourceIP: "A", DestIP: "B", Timestamp: 10, LastHop: hop("1.1.1.1", 11, 13),
		RouteAge: 10, ResidualLifetime: traceroute.Known(10),
		NbRouteChangesInSlot: 1, CurrentNbChangesInSlot: 0, NbRouteChangesInNextSlot: traceroute.Known(0)}
	s2 := &traceroute.ProbeSample{SourceIP: "A", DestIP: "B", Timestamp: 20, LastHop: hop("2.2.2.2", 30, 33),
		RouteAge: 0, ResidualLifetime: traceroute.Unknown(),
		NbRouteChangesInSlot: 1, CurrentNbChangesInSlot: 1, NbRouteChangesInNextSlot: traceroute.Known(0)}
	s0.NextLastHop = s1.LastHop
	s1.NextLastHop = s2.LastHop
	return []*traceroute.ProbeSample{s0, s1, s2}
}

func TestSummarize(t *testing.T) {
	samples := annotated()
	samples[1].LastHop = traceroute.Hop{}

	sum := Summarize(samples, []float64{20}, []int{1, 0}, 1, units.RTTMin)

	assert.Equal(t, 20.0, sum.RouteDuration.Average)
	assert.Equal(t, 0.5, sum.RouteChanges.Average)
	assert.Equal(t, 1, sum.RouteChanges.TotalChanges)
	assert.Equal(t, 2, sum.RTT.Count, "unanswered last hop is excluded")
	assert.Equal(t, 20.0, sum.RTT.Average)

	avg := Summarize(samples, nil, nil, 0, units.RTTAvg)
	assert.Equal(t, 22.5, avg.RTT.Average)
	assert.Equal(t, stats.Summary{}, avg.RouteDuration)
}

func TestBuildRow_Shapes(t *testing.T) {
	samples := annotated()
	sum := Summarize(samples, []float64{20}, []int{1}, 1, units.RTTMin)
	a := NewAssembler(units.RTTMin)

	row := a.BuildRow(0, samples[0], sum)
	assert.Len(t, row.Groups[ResidualLifetime].Features, stats.SummaryLen+1)
	assert.Len(t, row.Groups[RouteChanges].Features, stats.SummaryLen+4)
	assert.Len(t, row.Groups[NextRTT].Features, stats.SummaryLen+1)

	rc := row.Groups[RouteChanges].Features
	assert.Equal(t, []float64{1, 1, 1, 0}, rc[stats.SummaryLen:], "total, inSlot, hasChange, current")

	assert.Equal(t, 0.0, row.Groups[ResidualLifetime].Features[stats.SummaryLen])
	assert.Equal(t, traceroute.Known(20), row.Groups[ResidualLifetime].Target)
	assert.Equal(t, 10.0, row.Groups[NextRTT].Features[stats.SummaryLen])
	assert.Equal(t, traceroute.Known(11), row.Groups[NextRTT].Target)
	assert.True(t, row.Valid())
}

func TestBuildRow_NoChangeFlag(t *testing.T) {
	s := annotated()[0]
	s.NbRouteChangesInSlot = 0
	row := NewAssembler(units.RTTMin).BuildRow(0, s, Summaries{})
	assert.Equal(t, 0.0, row.Groups[RouteChanges].Features[stats.SummaryLen+2])
}

func TestTraining_DropsInvalidRows(t *testing.T) {
	samples := annotated()
	sum := Summarize(samples, []float64{20}, []int{1}, 1, units.RTTMin)

	ts := NewAssembler(units.RTTMin).Training(samples, sum)

	// the last probe has no residual lifetime and no look-ahead hop
	require.Len(t, ts.Rows, 2)
	assert.Equal(t, 1, ts.Dropped)
	assert.Equal(t, 0, ts.Rows[0].Index)
	assert.Equal(t, 1, ts.Rows[1].Index)

	x, y := ts.Matrix(ResidualLifetime)
	require.Len(t, x, 2)
	assert.Equal(t, []float64{20, 10}, y)

	_, y = ts.Matrix(NextRTT)
	assert.Equal(t, []float64{11, 30}, y)
}

func TestTraining_DropsUnansweredLastHop(t *testing.T) {
	samples := annotated()
	samples[0].LastHop = traceroute.Hop{}
	ts := NewAssembler(units.RTTMin).Training(samples, Summaries{})
	require.Len(t, ts.Rows, 1)
	assert.Equal(t, 1, ts.Rows[0].Index)
}

func TestPrediction_UsesLatestProbe(t *testing.T) {
	samples := annotated()
	sum := Summarize(samples, []float64{20}, []int{1}, 1, units.RTTMin)

	pr, err := NewAssembler(units.RTTMin).Prediction(samples, sum)
	require.NoError(t, err)
	assert.Equal(t, "A", pr.SourceIP)
	assert.Equal(t, "B", pr.DestIP)
	assert.Equal(t, int64(20), pr.Timestamp)
	assert.Equal(t, 30.0, pr.Features[NextRTT][stats.SummaryLen])
	assert.Equal(t, 1.0, pr.Features[RouteChanges][stats.SummaryLen+3])
}

func TestPrediction_Errors(t *testing.T) {
	a := NewAssembler(units.RTTMin)

	_, err := a.Prediction(nil, Summaries{})
	assert.True(t, errors.Is(err, traceroute.ErrEmptyPath))

	samples := annotated()
	samples[2].LastHop = traceroute.Hop{IP: "2.2.2.2", MinRTT: traceroute.NoRTT}
	_, err = a.Prediction(samples, Summaries{})
	assert.True(t, errors.Is(err, ErrInvalidFeatures))
}

func TestDiagnosticWriter(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	clock := timeutil.NewMockClock(time.Date(2015, 6, 2, 8, 30, 0, 0, time.UTC))
	w := &DiagnosticWriter{FS: mfs, Clock: clock, Dir: "/logs"}

	samples := annotated()
	sum := Summarize(samples, []float64{20}, []int{1}, 1, units.RTTMin)
	ts := NewAssembler(units.RTTMin).Training(samples, sum)

	path, err := w.Write("A", "B", ts.Rows)
	require.NoError(t, err)
	assert.Equal(t, "/logs/2015-06-02-08-30-00_features_A_B.log", path)

	data, err := mfs.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Len(t, strings.Split(line, "\t"), 3)
	}
	first := strings.Split(lines[0], "\t")[0]
	assert.True(t, strings.HasPrefix(first, "[") && strings.HasSuffix(first, ", 0]"), lines[0])
}

func TestDiagnosticWriter_NoRows(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := &DiagnosticWriter{FS: mfs, Clock: timeutil.NewMockClock(time.Unix(0, 0)), Dir: "/logs"}

	path, err := w.Write("A", "B", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.False(t, mfs.Exists("/logs"))
}

func TestFormatGroup(t *testing.T) {
	g := GroupRow{Features: []float64{1, 2.5}, Target: traceroute.Unknown()}
	assert.Equal(t, "[1, 2.5]", FormatGroup(g))
}

func TestGroupString(t *testing.T) {
	assert.Equal(t, "residual_lifetime", ResidualLifetime.String())
	assert.Equal(t, "route_changes", RouteChanges.String())
	assert.Equal(t, "next_rtt", NextRTT.String())
	assert.Equal(t, "unknown", Group(9).String())
}
