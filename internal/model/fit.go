package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate marks a fit that failed because the design matrix was
// singular or the likelihood did not converge. Callers decide whether the
// failure is fatal (full-sample fit) or skips one window (rolling fit).
var ErrDegenerate = errors.New("model fit degenerate")

const (
	logitMaxIter = 100
	logitTol     = 1e-9
	// weightFloor keeps the IRLS working weights away from zero when a
	// fitted probability saturates.
	weightFloor = 1e-10
)

// Fit holds a fitted coefficient vector plus the residual information the
// robust covariance estimator needs.
type Fit struct {
	Family   Family
	ColNames []string
	Beta     []float64
	// CatLevels carries the training design's categorical level sets so
	// predictions dummy-encode against the fitted layout.
	CatLevels map[string][]float64
	// Fitted are the in-sample predictions for the design rows, on the
	// probability scale for both families.
	Fitted []float64
	// Scores are the per-row moment contributions x_t * (y_t - mu_t)
	// feeding the HAC covariance.
	Scores *mat.Dense
	// Info is X'X for OLS and X'WX at convergence for the logit, the
	// "bread" of the sandwich covariance.
	Info *mat.Dense
	N    int
}

// FitModel estimates the design with the requested family.
func FitModel(d *Design, family Family) (*Fit, error) {
	switch family {
	case FamilyLogit:
		return fitLogit(d)
	case FamilyLPM:
		return fitOLS(d)
	default:
		return nil, fmt.Errorf("unknown model family %q", family)
	}
}

// fitOLS estimates a linear probability model by ordinary least squares.
func fitOLS(d *Design) (*Fit, error) {
	n, p := d.X.Dims()
	if n < p {
		return nil, fmt.Errorf("%w: %d rows for %d coefficients", ErrDegenerate, n, p)
	}

	var qr mat.QR
	qr.Factorize(d.X)

	yv := mat.NewDense(n, 1, append([]float64(nil), d.Y...))
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, yv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	beta := make([]float64, p)
	for j := 0; j < p; j++ {
		v := sol.At(j, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient for %s", ErrDegenerate, d.ColNames[j])
		}
		beta[j] = v
	}

	fitted := make([]float64, n)
	scores := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		xb := 0.0
		for j := 0; j < p; j++ {
			xb += d.X.At(i, j) * beta[j]
		}
		fitted[i] = xb
		e := d.Y[i] - xb
		for j := 0; j < p; j++ {
			scores.Set(i, j, d.X.At(i, j)*e)
		}
	}

	var info mat.Dense
	info.Mul(d.X.T(), d.X)

	return &Fit{
		Family:    FamilyLPM,
		ColNames:  d.ColNames,
		CatLevels: d.CatLevels,
		Beta:      beta,
		Fitted:   fitted,
		Scores:   scores,
		Info:     &info,
		N:        n,
	}, nil
}

// fitLogit estimates a logistic regression by iteratively reweighted least
// squares. The label must contain both classes; complete separation or a
// singular weighted design surfaces as ErrDegenerate.
func fitLogit(d *Design) (*Fit, error) {
	n, p := d.X.Dims()
	if n < p {
		return nil, fmt.Errorf("%w: %d rows for %d coefficients", ErrDegenerate, n, p)
	}
	if !labelVariation(d.Y) {
		return nil, fmt.Errorf("%w: label has no variation", ErrDegenerate)
	}

	beta := make([]float64, p)
	eta := make([]float64, n)
	mu := make([]float64, n)
	w := make([]float64, n)

	// Scaled working design sqrt(w)*X and response sqrt(w)*z fitted by
	// QR each iteration.
	xw := mat.NewDense(n, p, nil)
	zw := mat.NewDense(n, 1, nil)

	for iter := 0; iter < logitMaxIter; iter++ {
		for i := 0; i < n; i++ {
			xb := 0.0
			for j := 0; j < p; j++ {
				xb += d.X.At(i, j) * beta[j]
			}
			eta[i] = xb
			mu[i] = sigmoid(xb)
			w[i] = mu[i] * (1 - mu[i])
			if w[i] < weightFloor {
				w[i] = weightFloor
			}
			sw := math.Sqrt(w[i])
			z := eta[i] + (d.Y[i]-mu[i])/w[i]
			for j := 0; j < p; j++ {
				xw.Set(i, j, sw*d.X.At(i, j))
			}
			zw.Set(i, 0, sw*z)
		}

		var qr mat.QR
		qr.Factorize(xw)
		var sol mat.Dense
		if err := qr.SolveTo(&sol, false, zw); err != nil {
			return nil, fmt.Errorf("%w: weighted solve failed: %v", ErrDegenerate, err)
		}

		delta := 0.0
		for j := 0; j < p; j++ {
			v := sol.At(j, 0)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite coefficient for %s", ErrDegenerate, d.ColNames[j])
			}
			if dj := math.Abs(v - beta[j]); dj > delta {
				delta = dj
			}
			beta[j] = v
		}
		if delta < logitTol {
			break
		}
		if iter == logitMaxIter-1 {
			return nil, fmt.Errorf("%w: IRLS did not converge in %d iterations", ErrDegenerate, logitMaxIter)
		}
	}

	fitted := make([]float64, n)
	scores := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		xb := 0.0
		for j := 0; j < p; j++ {
			xb += d.X.At(i, j) * beta[j]
		}
		m := sigmoid(xb)
		fitted[i] = m
		for j := 0; j < p; j++ {
			scores.Set(i, j, d.X.At(i, j)*(d.Y[i]-m))
		}
	}

	// Observed information X'WX at the converged weights.
	info := mat.NewDense(p, p, nil)
	for i := 0; i < n; i++ {
		m := fitted[i]
		wi := m * (1 - m)
		if wi < weightFloor {
			wi = weightFloor
		}
		for j := 0; j < p; j++ {
			for k := 0; k < p; k++ {
				info.Set(j, k, info.At(j, k)+wi*d.X.At(i, j)*d.X.At(i, k))
			}
		}
	}

	return &Fit{
		Family:    FamilyLogit,
		ColNames:  d.ColNames,
		CatLevels: d.CatLevels,
		Beta:      beta,
		Fitted:   fitted,
		Scores:   scores,
		Info:     info,
		N:        n,
	}, nil
}
