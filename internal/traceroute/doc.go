// Package traceroute models traceroute probes and parses the
// tab-separated probe logs recorded for a monitored network path.
//
// A log is a sequence of record groups, one per probe:
//
//	SOURCE:	<ip>
//	DESTINATION:	<ip>
//	TIMESTAMP:	<YYYYMMDDThh:mm:ss>
//	HOP:	<ip>	<minRTT>	<avgRTT>	<maxRTT>	<mdevRTT>
//	...
//	END
//
// A hop IP of "NA" means the hop did not answer, and an RTT of -1 means
// no reply was measured. Both are normalised at the parser boundary so
// callers never compare against raw sentinel strings.
package traceroute
