// Package mathx provides the shared numerical routines for the calibration
// fitters: weighted linear least squares with covariance propagation, and
// goodness-of-fit statistics.
package mathx

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularFit is generated when the normal equations of a least-squares
// problem cannot be factorized, or when there are too few samples to
// constrain the parameters.
type ErrSingularFit struct {
	// Points is the number of samples entering the fit
	Points int

	// Params is the number of free parameters
	Params int
}

// Error satisfies the error interface
func (e ErrSingularFit) Error() string {
	return fmt.Sprintf("least-squares fit with %d points and %d parameters is singular or underdetermined", e.Points, e.Params)
}

// FitResult is the output of a least-squares solve.
type FitResult struct {
	// Coeffs are the best-fit parameters
	Coeffs []float64

	// Cov is the parameter covariance matrix, scaled by the reduced
	// chi-square of the fit
	Cov *mat.SymDense

	// Errs are the one-sigma parameter uncertainties, the square roots of the
	// covariance diagonal
	Errs []float64

	// ChiSq is the weighted sum of squared residuals
	ChiSq float64

	// Dof is the number of degrees of freedom, points minus parameters
	Dof int
}

// WeightedLeastSquares solves y ~ A*x in the weighted least-squares sense.
// a is the n x p design matrix, y the n observations and w the per-sample
// weights (inverse variances).  The normal equations are factorized by
// Cholesky decomposition; a singular system yields ErrSingularFit.
func WeightedLeastSquares(a *mat.Dense, y, w []float64) (FitResult, error) {
	n, p := a.Dims()
	if len(y) != n || len(w) != n {
		return FitResult{}, fmt.Errorf("design matrix has %d rows but %d observations and %d weights were given", n, len(y), len(w))
	}
	if n <= p {
		return FitResult{}, ErrSingularFit{Points: n, Params: p}
	}

	// normal equations: M = A^T W A, b = A^T W y
	m := mat.NewSymDense(p, nil)
	b := mat.NewVecDense(p, nil)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += w[i] * a.At(i, j) * a.At(i, k)
			}
			m.SetSym(j, k, sum)
		}
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += w[i] * a.At(i, j) * y[i]
		}
		b.SetVec(j, sum)
	}

	var chol mat.Cholesky
	if !chol.Factorize(m) {
		return FitResult{}, ErrSingularFit{Points: n, Params: p}
	}
	x := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(x, b); err != nil {
		return FitResult{}, ErrSingularFit{Points: n, Params: p}
	}

	coeffs := make([]float64, p)
	for j := 0; j < p; j++ {
		coeffs[j] = x.AtVec(j)
	}

	chisq := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < p; j++ {
			pred += a.At(i, j) * coeffs[j]
		}
		d := y[i] - pred
		chisq += w[i] * d * d
	}
	dof := n - p

	var minv mat.SymDense
	if err := chol.InverseTo(&minv); err != nil {
		return FitResult{}, ErrSingularFit{Points: n, Params: p}
	}
	// scale by reduced chi-square so the errors reflect the observed scatter,
	// not just the supplied weights
	scale := chisq / float64(dof)
	cov := mat.NewSymDense(p, nil)
	errs := make([]float64, p)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			cov.SetSym(j, k, minv.At(j, k)*scale)
		}
	}
	for j := 0; j < p; j++ {
		errs[j] = math.Sqrt(cov.At(j, j))
	}

	return FitResult{Coeffs: coeffs, Cov: cov, Errs: errs, ChiSq: chisq, Dof: dof}, nil
}

// RSquared returns the weighted coefficient of determination of predictions
// yhat against observations y.
func RSquared(y, yhat, w []float64) float64 {
	var wsum, mean float64
	for i := range y {
		wsum += w[i]
		mean += w[i] * y[i]
	}
	mean /= wsum
	var ssRes, ssTot float64
	for i := range y {
		dr := y[i] - yhat[i]
		dt := y[i] - mean
		ssRes += w[i] * dr * dr
		ssTot += w[i] * dt * dt
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// ClampVariance applies the floor used when inverse-variance weights are built
// from measured scatter: variances below floor are raised to it so that a
// near-noiseless sample cannot dominate the fit.
func ClampVariance(variance, floor float64) float64 {
	if variance < floor {
		return floor
	}
	return variance
}
