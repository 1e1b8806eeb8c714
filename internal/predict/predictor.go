// Package predict fits the forecast models on a path's training rows and
// writes the forecasts for the path's most recent probe.
package predict

import "errors"

var (
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("predictor has not been fitted")

	// ErrNoTrainingData is returned by Fit when there are no rows.
	ErrNoTrainingData = errors.New("no training data")
)

// Predictor is a regression model over one feature group. Every row of X
// and every x passed to Predict must have the same length.
type Predictor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) (float64, error)
}

// Factory creates a fresh, unfitted Predictor.
type Factory func() Predictor
