package traceroute

import (
	"fmt"
	"strconv"

	"github.com/banshee-data/routecast/internal/units"
)

// NoResponseIP is the hop address recorded when a hop did not answer.
const NoResponseIP = "NA"

// NoRTT is the RTT value recorded when no reply was measured.
const NoRTT = -1.0

// Value is a float that may be unknown. It replaces the mix of numeric
// and string sentinels found in raw logs.
type Value struct {
	V     float64
	Known bool
}

// Known wraps v as a known value.
func Known(v float64) Value { return Value{V: v, Known: true} }

// Unknown returns the unknown value.
func Unknown() Value { return Value{} }

func (v Value) String() string {
	if !v.Known {
		return "unknown"
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}

// Hop is one router-level reply (or non-reply) within a probe.
type Hop struct {
	IP      string
	MinRTT  float64
	AvgRTT  float64
	MaxRTT  float64
	MdevRTT float64
}

// Equal reports whether two hops are the same router. Latency is not
// part of a hop's identity.
func (h Hop) Equal(other Hop) bool {
	return h.IP == other.IP
}

// IsZero reports whether h is the placeholder for an unknown hop.
func (h Hop) IsZero() bool {
	return h.IP == ""
}

// Responded reports whether the hop answered with a usable RTT.
func (h Hop) Responded() bool {
	return h.IP != "" && h.IP != NoResponseIP && h.MinRTT != NoRTT
}

// RTT returns the requested RTT statistic of the hop, or Unknown when the
// hop is a placeholder or the statistic was not measured.
func (h Hop) RTT(metric string) Value {
	if h.IsZero() {
		return Unknown()
	}
	var v float64
	switch metric {
	case units.RTTAvg:
		v = h.AvgRTT
	case units.RTTMax:
		v = h.MaxRTT
	case units.RTTMdev:
		v = h.MdevRTT
	default:
		v = h.MinRTT
	}
	if v == NoRTT {
		return Unknown()
	}
	return Known(v)
}

func (h Hop) String() string {
	return fmt.Sprintf("%s %g/%g/%g/%g", h.IP, h.MinRTT, h.AvgRTT, h.MaxRTT, h.MdevRTT)
}

// ProbeSample is one traceroute execution together with the fields
// derived from its position in the path history.
type ProbeSample struct {
	SourceIP  string
	DestIP    string
	Timestamp int64 // unix seconds
	Hops      []Hop

	// LastHop is the last hop of the probe that answered with a known
	// IP and minimum RTT. NextLastHop is the LastHop of the following
	// probe, or the zero Hop for the final probe of a log.
	LastHop     Hop
	NextLastHop Hop

	TimeslotIndex int

	RouteAge         float64
	ResidualLifetime Value

	NbRouteChangesInSlot     int
	CurrentNbChangesInSlot   int
	NbRouteChangesInNextSlot Value
}

// SameRoute reports whether two probes observed the identical hop
// sequence. This is the basis of route-change detection.
func (s *ProbeSample) SameRoute(other *ProbeSample) bool {
	if len(s.Hops) != len(other.Hops) {
		return false
	}
	for i := range s.Hops {
		if !s.Hops[i].Equal(other.Hops[i]) {
			return false
		}
	}
	return true
}

// Path returns the "src->dst" label of the probe.
func (s *ProbeSample) Path() string {
	return s.SourceIP + "->" + s.DestIP
}
