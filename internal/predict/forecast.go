package predict

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/routecast/internal/features"
	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/security"
)

// Forecast holds one prediction per feature group for the most recent
// probe of a path.
type Forecast struct {
	SourceIP  string
	DestIP    string
	Timestamp int64
	Values    [features.NumGroups]float64
}

// ResidualLifetime is the predicted remaining lifetime of the current
// route, in seconds.
func (f *Forecast) ResidualLifetime() float64 { return f.Values[features.ResidualLifetime] }

// ChangesNextSlot is the predicted number of route changes in the next
// timeslot.
func (f *Forecast) ChangesNextSlot() float64 { return f.Values[features.RouteChanges] }

// NextRTT is the predicted last-hop RTT of the next probe.
func (f *Forecast) NextRTT() float64 { return f.Values[features.NextRTT] }

// Models holds one fitted predictor per feature group.
type Models struct {
	Groups [features.NumGroups]Predictor
	Rows   int
}

// Train fits one model per group on ts. newModel defaults to
// NewLeastSquares.
func Train(ts *features.TrainingSet, newModel Factory) (*Models, error) {
	if ts == nil || len(ts.Rows) == 0 {
		return nil, ErrNoTrainingData
	}
	if newModel == nil {
		newModel = NewLeastSquares
	}
	m := &Models{Rows: len(ts.Rows)}
	for _, g := range features.Groups {
		x, y := ts.Matrix(g)
		model := newModel()
		if err := model.Fit(x, y); err != nil {
			return nil, fmt.Errorf("failed to fit %s model: %w", g, err)
		}
		m.Groups[g] = model
	}
	return m, nil
}

// Forecast evaluates every group's model on the prediction row.
func (m *Models) Forecast(row *features.PredictionRow) (*Forecast, error) {
	f := &Forecast{SourceIP: row.SourceIP, DestIP: row.DestIP, Timestamp: row.Timestamp}
	for _, g := range features.Groups {
		if m.Groups[g] == nil {
			return nil, ErrNotFitted
		}
		v, err := m.Groups[g].Predict(row.Features[g])
		if err != nil {
			return nil, fmt.Errorf("failed to predict %s: %w", g, err)
		}
		f.Values[g] = v
	}
	return f, nil
}

// Run trains on ts and forecasts row.
func Run(ts *features.TrainingSet, row *features.PredictionRow, newModel Factory) (*Forecast, error) {
	m, err := Train(ts, newModel)
	if err != nil {
		return nil, err
	}
	return m.Forecast(row)
}

// FileName returns prediction_<src>_<dst>.txt.
func FileName(src, dst string) string {
	return fmt.Sprintf("prediction_%s_%s.txt", security.SanitizeFilename(src), security.SanitizeFilename(dst))
}

// Format renders the forecast as KEY:\tvalue lines. slotHours names the
// route-change horizon.
func Format(f *Forecast, slotHours float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RESIDUAL_LIFE_TIME:\t%s\n", formatFloat(f.ResidualLifetime()))
	fmt.Fprintf(&b, "NUMBER_ROUTE_CHANGES_NEXT_%sH_TIMESLOT:\t%s\n", formatFloat(slotHours), formatFloat(f.ChangesNextSlot()))
	fmt.Fprintf(&b, "AVG_RTT_NEXT_TRACERT_SAMPLE:\t%s\n", formatFloat(f.NextRTT()))
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteFile stores the forecast in dir and returns the file's path.
func WriteFile(fsys fsutil.FileSystem, dir string, f *Forecast, slotHours float64) (string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path, err := security.JoinWithin(dir, FileName(f.SourceIP, f.DestIP))
	if err != nil {
		return "", err
	}
	w, err := fsys.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create prediction file: %w", err)
	}
	if _, err := w.Write([]byte(Format(f, slotHours))); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write prediction file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close prediction file: %w", err)
	}
	return path, nil
}
