// Package testutil builds probe logs for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// DefaultRTT is the RTT written for hops added without an explicit value.
const DefaultRTT = 10.0

// LogBuilder writes probe records in the on-disk log format.
type LogBuilder struct {
	Src, Dst string
	b        strings.Builder
}

// NewLogBuilder starts an empty log for the path src -> dst.
func NewLogBuilder(src, dst string) *LogBuilder {
	return &LogBuilder{Src: src, Dst: dst}
}

// FormatTimestamp renders t in the log's TIMESTAMP: layout, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("20060102T15:04:05")
}

// Probe appends a probe at ts whose hops all answer with DefaultRTT. A hop
// named "NA" is written as a non-response.
func (l *LogBuilder) Probe(ts time.Time, hops ...string) *LogBuilder {
	return l.ProbeRTT(ts, DefaultRTT, hops...)
}

// ProbeRTT is Probe with every answering hop reporting rtt as its min,
// avg and max.
func (l *LogBuilder) ProbeRTT(ts time.Time, rtt float64, hops ...string) *LogBuilder {
	fmt.Fprintf(&l.b, "SOURCE:\t%s\nDESTINATION:\t%s\nTIMESTAMP:\t%s\n", l.Src, l.Dst, FormatTimestamp(ts))
	for _, h := range hops {
		if h == "NA" {
			l.b.WriteString("HOP:\tNA\t-1\t-1\t-1\t-1\n")
			continue
		}
		fmt.Fprintf(&l.b, "HOP:\t%s\t%g\t%g\t%g\t0\n", h, rtt, rtt, rtt)
	}
	l.b.WriteString("END\n\n")
	return l
}

// Raw appends text verbatim.
func (l *LogBuilder) Raw(s string) *LogBuilder {
	l.b.WriteString(s)
	return l
}

func (l *LogBuilder) String() string { return l.b.String() }

// WriteFile stores the log as dir/name and returns its path.
func (l *LogBuilder) WriteFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(l.String()), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
