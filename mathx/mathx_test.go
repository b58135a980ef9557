package mathx_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/camlab/spectacle/mathx"
)

func TestWeightedLeastSquaresRecoversLine(t *testing.T) {
	// y = 2 + 3x, exact
	xs := []float64{0, 1, 2, 3, 4, 5}
	rows := make([]float64, 0, len(xs)*2)
	y := make([]float64, 0, len(xs))
	w := make([]float64, 0, len(xs))
	for _, x := range xs {
		rows = append(rows, 1, x)
		y = append(y, 2+3*x)
		w = append(w, 1)
	}
	a := mat.NewDense(len(xs), 2, rows)
	res, err := mathx.WeightedLeastSquares(a, y, w)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Coeffs[0]-2) > 1e-10 || math.Abs(res.Coeffs[1]-3) > 1e-10 {
		t.Errorf("expected coefficients (2, 3), got %v", res.Coeffs)
	}
	if res.Dof != 4 {
		t.Errorf("expected 4 degrees of freedom, got %d", res.Dof)
	}
	if res.ChiSq > 1e-18 {
		t.Errorf("exact data should have ~zero chi-square, got %g", res.ChiSq)
	}
}

func TestWeightsDownweightOutliers(t *testing.T) {
	// a heavily downweighted outlier should barely move the fit
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{1, 2, 3, 4, 100}
	ws := []float64{1, 1, 1, 1, 1e-9}
	rows := make([]float64, 0, len(xs)*2)
	for _, x := range xs {
		rows = append(rows, 1, x)
	}
	a := mat.NewDense(len(xs), 2, rows)
	res, err := mathx.WeightedLeastSquares(a, ys, ws)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Coeffs[1]-1) > 1e-3 {
		t.Errorf("outlier dominated the fit: slope %g", res.Coeffs[1])
	}
}

func TestSingularSystemIsReported(t *testing.T) {
	// two identical columns cannot be separated
	rows := []float64{1, 1, 2, 2, 3, 3, 4, 4}
	a := mat.NewDense(4, 2, rows)
	y := []float64{1, 2, 3, 4}
	w := []float64{1, 1, 1, 1}
	_, err := mathx.WeightedLeastSquares(a, y, w)
	if _, ok := err.(mathx.ErrSingularFit); !ok {
		t.Fatalf("expected ErrSingularFit, got %T: %v", err, err)
	}
}

func TestUnderdeterminedIsReported(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	_, err := mathx.WeightedLeastSquares(a, []float64{1, 2}, []float64{1, 1})
	if _, ok := err.(mathx.ErrSingularFit); !ok {
		t.Fatalf("expected ErrSingularFit for n <= p, got %T: %v", err, err)
	}
}

func TestRSquared(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	w := []float64{1, 1, 1, 1}
	if r2 := mathx.RSquared(y, y, w); r2 != 1 {
		t.Errorf("perfect predictions should give R2 = 1, got %g", r2)
	}
	flat := []float64{2.5, 2.5, 2.5, 2.5}
	if r2 := mathx.RSquared(y, flat, w); r2 != 0 {
		t.Errorf("mean-only predictions should give R2 = 0, got %g", r2)
	}
}

func TestClampVariance(t *testing.T) {
	if v := mathx.ClampVariance(1e-20, 1e-12); v != 1e-12 {
		t.Errorf("expected clamp to floor, got %g", v)
	}
	if v := mathx.ClampVariance(0.5, 1e-12); v != 0.5 {
		t.Errorf("expected pass-through, got %g", v)
	}
}
