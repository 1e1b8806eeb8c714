package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/routecast/internal/config"
	"github.com/banshee-data/routecast/internal/db"
	"github.com/banshee-data/routecast/internal/features"
	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/monitoring"
	"github.com/banshee-data/routecast/internal/pipeline"
	"github.com/banshee-data/routecast/internal/predict"
	"github.com/banshee-data/routecast/internal/report"
	"github.com/banshee-data/routecast/internal/traceroute"
	"github.com/banshee-data/routecast/internal/units"
)

// processor runs one analysis command over every path log of a directory.
type processor struct {
	command  string
	cfg      *config.AnalysisConfig
	fsys     fsutil.FileSystem
	loc      *time.Location
	diag     *features.DiagnosticWriter
	db       *db.DB // nil when db_path is empty
	newModel predict.Factory
	stdout   io.Writer
}

type runSummary struct {
	processed int
	failed    int
}

func newProcessor(command string, cfg *config.AnalysisConfig, stdout io.Writer) (*processor, error) {
	loc, err := units.LoadLogLocation(cfg.GetTimezone())
	if err != nil {
		return nil, err
	}
	p := &processor{
		command:  command,
		cfg:      cfg,
		fsys:     fsutil.OSFileSystem{},
		loc:      loc,
		diag:     features.NewDiagnosticWriter(cfg.GetLogDir()),
		newModel: predict.NewLeastSquares,
		stdout:   stdout,
	}
	if path := cfg.GetDBPath(); path != "" && command != cmdFeatures {
		d, err := db.Open(path)
		if err != nil {
			return nil, err
		}
		p.db = d
	}
	return p, nil
}

// Close releases the results database.
func (p *processor) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *processor) options() pipeline.Options {
	return pipeline.Options{
		SlotHours:    p.cfg.GetTimeslotHours(),
		HorizonHours: p.cfg.GetObservationHours(),
		RTTMetric:    p.cfg.GetRTTMetric(),
		Location:     p.loc,
	}
}

// processDir processes every path log in dir in name order. A path that
// fails is logged and skipped; only a failure to list dir is returned.
func (p *processor) processDir(dir string) (runSummary, error) {
	var sum runSummary
	if !p.fsys.Exists(dir) {
		return sum, fmt.Errorf("input directory %s does not exist", dir)
	}
	names, err := p.fsys.ListFiles(dir)
	if err != nil {
		return sum, fmt.Errorf("failed to list input dir: %w", err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		if err := p.processPath(filepath.Join(dir, name)); err != nil {
			sum.failed++
			var pe *traceroute.ParseError
			switch {
			case errors.As(err, &pe):
				monitoring.Logf("skipping malformed log: %v", err)
			case errors.Is(err, traceroute.ErrEmptyPath):
				monitoring.Logf("skipping %s: %v", name, traceroute.ErrEmptyPath)
			default:
				monitoring.Logf("failed to process %s: %v", name, err)
			}
			continue
		}
		sum.processed++
	}
	return sum, nil
}

func (p *processor) processPath(name string) error {
	opts := p.options()
	res, err := pipeline.AnalyzeFile(p.fsys, name, opts)
	if err != nil {
		return err
	}
	src, dst := res.SourceIP, res.DestIP

	a := features.NewAssembler(opts.RTTMetric)
	ts := a.Training(res.Samples, res.Summaries)
	monitoring.PathLogf(src, dst, "%d training rows, %d dropped", len(ts.Rows), ts.Dropped)

	if p.command == cmdFeatures || p.cfg.GetWriteDiagnostics() {
		path, err := p.diag.Write(src, dst, ts.Rows)
		if err != nil {
			return err
		}
		if path != "" {
			monitoring.PathLogf(src, dst, "wrote feature log %s", path)
		}
	}
	if p.command == cmdFeatures {
		fmt.Fprintf(p.stdout, "%s\t%d samples\t%d runs\t%d rows\n", res.Samples[0].Path(), len(res.Samples), len(res.Runs), len(ts.Rows))
		return nil
	}

	if err := p.writeReports(res); err != nil {
		return err
	}

	var analysisID string
	if p.db != nil {
		analysisID, err = p.db.RecordAnalysis(&db.Analysis{
			SourceIP:         src,
			DestIP:           dst,
			SampleCount:      len(res.Samples),
			RunCount:         len(res.Runs),
			TotalChanges:     res.TotalChanges(),
			ObservationHours: opts.HorizonHours,
			TimeslotHours:    opts.SlotHours,
			RTTMetric:        opts.RTTMetric,
		})
		if err != nil {
			return err
		}
		if err := p.db.RecordFeatureRows(analysisID, ts.Rows); err != nil {
			return err
		}
	}

	models, err := predict.Train(ts, p.newModel)
	if err != nil {
		return fmt.Errorf("path %s->%s: %w", src, dst, err)
	}
	if p.command == cmdTrain {
		fmt.Fprintf(p.stdout, "%s\t%d samples\t%d runs\t%d rows\ttrained\n", res.Samples[0].Path(), len(res.Samples), len(res.Runs), models.Rows)
		return nil
	}

	row, err := a.Prediction(res.Samples, res.Summaries)
	if err != nil {
		return fmt.Errorf("path %s->%s: %w", src, dst, err)
	}
	forecast, err := models.Forecast(row)
	if err != nil {
		return err
	}
	out, err := predict.WriteFile(p.fsys, p.cfg.GetOutputDir(), forecast, opts.SlotHours)
	if err != nil {
		return err
	}
	if p.db != nil {
		if err := p.db.RecordPrediction(analysisID, forecast); err != nil {
			return err
		}
	}
	fmt.Fprintf(p.stdout, "%s\t%s\n", res.Samples[0].Path(), out)
	return nil
}

func (p *processor) writeReports(res *pipeline.Result) error {
	dir := p.cfg.GetPlotDir()
	if dir == "" {
		return nil
	}
	if _, err := report.WriteRoutePlot(p.fsys, dir, res, p.cfg.GetRTTMetric()); err != nil {
		return err
	}
	if _, err := report.WriteSlotChart(p.fsys, dir, res); err != nil {
		return err
	}
	return nil
}
