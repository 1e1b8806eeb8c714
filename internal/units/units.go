// Package units provides shared constants and validation for RTT metrics
// and log timezones.
package units

// RTT metric names, selecting which per-hop statistic feeds the latency
// forecast.
const (
	RTTMin  = "min"
	RTTAvg  = "avg"
	RTTMax  = "max"
	RTTMdev = "mdev"
)

// ValidRTTMetrics contains all valid RTT metric names
var ValidRTTMetrics = []string{RTTMin, RTTAvg, RTTMax, RTTMdev}

// IsValidRTTMetric checks if the given metric is in the list of valid metrics
func IsValidRTTMetric(metric string) bool {
	for _, valid := range ValidRTTMetrics {
		if metric == valid {
			return true
		}
	}
	return false
}

// GetValidRTTMetricsString returns a comma-separated string of valid metrics for error messages
func GetValidRTTMetricsString() string {
	return "min, avg, max, mdev"
}

// SecondsPerHour converts the hour-valued durations of the configuration
// into the unix-second scale of probe timestamps.
const SecondsPerHour = 3600
