package traceroute

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/routecast/internal/monitoring"
)

// Record keywords, the first tab-separated token of every non-blank line.
const (
	KeySource      = "SOURCE:"
	KeyDestination = "DESTINATION:"
	KeyTimestamp   = "TIMESTAMP:"
	KeyHop         = "HOP:"
	KeyEnd         = "END"
)

// TimestampLayout is the layout of TIMESTAMP: values.
const TimestampLayout = "20060102T15:04:05"

// hopFields is the number of values following the HOP: keyword.
const hopFields = 5

// maxLineBytes bounds a single log line.
const maxLineBytes = 1 << 20

// ParserOptions configures a Parser.
type ParserOptions struct {
	// Location is the zone TIMESTAMP: values are interpreted in.
	// Nil means UTC.
	Location *time.Location

	// OnFinalize is called for every probe when its END record is read,
	// before the probe is appended to the output. A non-nil error aborts
	// parsing.
	OnFinalize func(s *ProbeSample) error
}

// Parser converts log lines into an ordered sequence of ProbeSamples.
// A Parser is not safe for concurrent use; each log gets its own.
type Parser struct {
	opts ParserOptions

	current      *ProbeSample
	hasTimestamp bool
	lastTS       int64
	samples      []*ProbeSample
}

// NewParser creates a parser with the given options.
func NewParser(opts ParserOptions) *Parser {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Parser{opts: opts}
}

// Parse reads the whole log from r and returns its probes in log order.
// Parsing stops at the first malformed record with a *ParseError. Lines
// with an unknown keyword are logged and skipped.
func (p *Parser) Parse(r io.Reader) ([]*ProbeSample, error) {
	p.reset()
	p.samples = nil

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		if err := p.consume(lineNo, strings.Split(line, "\t")); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	if p.current != nil && (p.hasTimestamp || len(p.current.Hops) > 0) {
		monitoring.Logf("discarding unterminated probe record at end of log (%d hops)", len(p.current.Hops))
	}

	return p.samples, nil
}

func (p *Parser) reset() {
	p.current = &ProbeSample{}
	p.hasTimestamp = false
}

func (p *Parser) consume(lineNo int, data []string) error {
	switch data[0] {
	case KeySource:
		if len(data) < 2 {
			return parseErrorf(lineNo, nil, "SOURCE: record without address")
		}
		p.current.SourceIP = data[1]

	case KeyDestination:
		if len(data) < 2 {
			return parseErrorf(lineNo, nil, "DESTINATION: record without address")
		}
		p.current.DestIP = data[1]

	case KeyTimestamp:
		if len(data) < 2 {
			return parseErrorf(lineNo, nil, "TIMESTAMP: record without value")
		}
		ts, err := ParseTimestamp(data[1], p.opts.Location)
		if err != nil {
			return parseErrorf(lineNo, err, "invalid timestamp %q", data[1])
		}
		p.current.Timestamp = ts
		p.hasTimestamp = true

	case KeyHop:
		hop, err := parseHop(data)
		if err != nil {
			return parseErrorf(lineNo, err, "invalid HOP: record")
		}
		p.current.Hops = append(p.current.Hops, hop)
		if hop.Responded() {
			p.current.LastHop = hop
		}

	case KeyEnd:
		if !p.hasTimestamp {
			return parseErrorf(lineNo, nil, "END without TIMESTAMP:")
		}
		if len(p.samples) > 0 && p.current.Timestamp < p.lastTS {
			return parseErrorf(lineNo, nil, "probe timestamp %d precedes previous probe at %d", p.current.Timestamp, p.lastTS)
		}
		if p.opts.OnFinalize != nil {
			if err := p.opts.OnFinalize(p.current); err != nil {
				return parseErrorf(lineNo, err, "failed to finalize probe")
			}
		}
		p.lastTS = p.current.Timestamp
		p.samples = append(p.samples, p.current)
		p.reset()

	default:
		monitoring.Logf("line %d: skipping unknown record %q", lineNo, data[0])
	}
	return nil
}

func parseHop(data []string) (Hop, error) {
	if len(data) < hopFields+1 {
		return Hop{}, fmt.Errorf("expected %d fields, got %d", hopFields, len(data)-1)
	}
	h := Hop{IP: data[1]}
	rtts := []*float64{&h.MinRTT, &h.AvgRTT, &h.MaxRTT, &h.MdevRTT}
	for i, dst := range rtts {
		v, err := strconv.ParseFloat(strings.TrimSpace(data[i+2]), 64)
		if err != nil {
			return Hop{}, fmt.Errorf("failed to parse rtt field %d: %w", i+1, err)
		}
		*dst = v
	}
	return h, nil
}

// ParseTimestamp converts a YYYYMMDDThh:mm:ss string into unix seconds,
// interpreting it in loc (UTC when nil).
func ParseTimestamp(s string, loc *time.Location) (int64, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
