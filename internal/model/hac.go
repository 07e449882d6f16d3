package model

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// HACCovariance computes the Newey-West sandwich covariance of a fit:
// Info^{-1} * M * Info^{-1}, where M accumulates the score outer products
// with Bartlett-weighted autocovariances up to lags periods.
//
// years orders the score rows in time; rows are sorted stably by year
// before lagged products are taken, so the lag structure follows the
// panel's calendar rather than its storage order. With lags == 0 this is
// the plain heteroskedasticity-robust estimator.
func HACCovariance(f *Fit, years []int, lags int) (*mat.SymDense, error) {
	n, p := f.Scores.Dims()
	if len(years) != n {
		return nil, fmt.Errorf("hac: %d years for %d score rows", len(years), n)
	}
	if lags < 0 {
		lags = 0
	}

	order := sortedByYear(years)

	// M = Gamma_0 + sum_l w_l (Gamma_l + Gamma_l')
	m := mat.NewDense(p, p, nil)
	addLagProducts(m, f.Scores, order, 0, 1.0)
	for l := 1; l <= lags; l++ {
		w := 1.0 - float64(l)/float64(lags+1)
		addLagProducts(m, f.Scores, order, l, w)
	}

	var inv mat.Dense
	if err := inv.Inverse(f.Info); err != nil {
		return nil, fmt.Errorf("hac: information matrix not invertible: %w", err)
	}

	var tmp, cov mat.Dense
	tmp.Mul(&inv, m)
	cov.Mul(&tmp, &inv)

	// Symmetrise the numerical result.
	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sym.SetSym(i, j, 0.5*(cov.At(i, j)+cov.At(j, i)))
		}
	}
	return sym, nil
}

// addLagProducts accumulates w * (g_t g_{t-l}' + g_{t-l} g_t') into m for
// the given lag, with the lag-0 term added once.
func addLagProducts(m *mat.Dense, scores *mat.Dense, order []int, lag int, w float64) {
	n, p := scores.Dims()
	for t := lag; t < n; t++ {
		a := order[t]
		b := order[t-lag]
		for i := 0; i < p; i++ {
			gi := scores.At(a, i)
			for j := 0; j < p; j++ {
				gj := scores.At(b, j)
				if lag == 0 {
					m.Set(i, j, m.At(i, j)+w*gi*gj)
				} else {
					m.Set(i, j, m.At(i, j)+w*(gi*gj+scores.At(b, i)*scores.At(a, j)))
				}
			}
		}
	}
}

// sortedByYear returns row indices in stable increasing-year order, so
// within-year storage order is preserved.
func sortedByYear(years []int) []int {
	order := make([]int, len(years))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return years[order[i]] < years[order[j]] })
	return order
}
