package predict

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultRidge is the penalty used when the design matrix is rank
// deficient. Feature groups always carry path-wide summary columns that are
// constant across a path's rows, so this is the common case.
const DefaultRidge = 1e-6

// maxCondition is the largest condition number accepted for a plain QR
// solve.
const maxCondition = 1e10

// LeastSquares is an ordinary least squares regression with an intercept.
// When the design matrix is ill-conditioned it falls back to a ridge
// solution of the normal equations.
type LeastSquares struct {
	Ridge float64

	coef  []float64 // coef[0] is the intercept
	ridge bool
}

// NewLeastSquares creates an unfitted model with the default ridge penalty.
func NewLeastSquares() Predictor {
	return &LeastSquares{Ridge: DefaultRidge}
}

// Fit estimates the coefficients from rows X and targets y.
func (m *LeastSquares) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return ErrNoTrainingData
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature rows and targets differ in length: %d vs %d", len(X), len(y))
	}
	p := len(X[0])
	a := mat.NewDense(len(X), p+1, nil)
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), p)
		}
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(len(y), append([]float64(nil), y...))

	var beta mat.VecDense
	m.ridge = false
	if !solveQR(a, b, &beta) {
		if err := m.solveRidge(a, b, &beta); err != nil {
			return err
		}
		m.ridge = true
	}

	m.coef = make([]float64, p+1)
	for j := range m.coef {
		m.coef[j] = beta.AtVec(j)
	}
	return nil
}

// solveQR computes the least squares solution through a QR factorisation.
// It reports false when A has fewer rows than columns or is too
// ill-conditioned for the solution to be meaningful.
func solveQR(a *mat.Dense, b *mat.VecDense, beta *mat.VecDense) bool {
	r, c := a.Dims()
	if r < c {
		return false
	}
	var qr mat.QR
	qr.Factorize(a)
	if cond := qr.Cond(); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > maxCondition {
		return false
	}
	return qr.SolveVecTo(beta, false, b) == nil
}

// solveRidge solves (AᵀA + λI)β = Aᵀb by Cholesky factorisation.
func (m *LeastSquares) solveRidge(a *mat.Dense, b *mat.VecDense, beta *mat.VecDense) error {
	_, n := a.Dims()
	lambda := m.Ridge
	if lambda <= 0 {
		lambda = DefaultRidge
	}

	var ata mat.SymDense
	ata.SymOuterK(1, a.T())
	for i := 0; i < n; i++ {
		ata.SetSym(i, i, ata.At(i, i)+lambda)
	}
	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	var chol mat.Cholesky
	if ok := chol.Factorize(&ata); !ok {
		return fmt.Errorf("failed to factorize normal equations")
	}
	if err := chol.SolveVecTo(beta, &atb); err != nil {
		return fmt.Errorf("failed to solve normal equations: %w", err)
	}
	return nil
}

// Predict evaluates the fitted model at x.
func (m *LeastSquares) Predict(x []float64) (float64, error) {
	if m.coef == nil {
		return 0, ErrNotFitted
	}
	if len(x) != len(m.coef)-1 {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.coef)-1, len(x))
	}
	y := m.coef[0]
	for j, v := range x {
		y += m.coef[j+1] * v
	}
	return y, nil
}

// Coefficients returns a copy of the fitted coefficients, intercept first.
func (m *LeastSquares) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}

// Regularized reports whether the last Fit used the ridge fallback.
func (m *LeastSquares) Regularized() bool { return m.ridge }
