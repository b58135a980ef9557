package vignette_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/camlab/spectacle/frame"
	"github.com/camlab/spectacle/mathx"
	"github.com/camlab/spectacle/vignette"
)

var truth = vignette.Parameters{Coeffs: [vignette.NumCoefficients]float64{1.0, 0.9, -0.4, 0.25, -0.15}}

func TestFitRecoversExactModel(t *testing.T) {
	corr := vignette.Apply(81, 61, truth)
	p, err := vignette.Fit(corr)
	if err != nil {
		t.Fatal(err)
	}
	for i := range truth.Coeffs {
		if math.Abs(p.Coeffs[i]-truth.Coeffs[i]) > 1e-6 {
			t.Errorf("k%d: expected %g, got %g", i, truth.Coeffs[i], p.Coeffs[i])
		}
	}
}

func TestFitRecoversNoisyModelWithinUncertainty(t *testing.T) {
	corr := vignette.Apply(101, 81, truth)
	rng := rand.New(rand.NewSource(42))
	for i := range corr.Data {
		corr.Data[i] += rng.NormFloat64() * 1e-3
	}
	// NaN pixels must be excluded, not zeroed
	corr.Set(3, 3, math.NaN())
	corr.Set(50, 40, math.NaN())

	p, err := vignette.Fit(corr)
	if err != nil {
		t.Fatal(err)
	}
	for i := range truth.Coeffs {
		tol := 5*p.Errs[i] + 5e-3
		if math.Abs(p.Coeffs[i]-truth.Coeffs[i]) > tol {
			t.Errorf("k%d: fitted %g +- %g, truth %g is outside tolerance %g",
				i, p.Coeffs[i], p.Errs[i], truth.Coeffs[i], tol)
		}
		if p.Errs[i] <= 0 {
			t.Errorf("k%d: expected a positive uncertainty, got %g", i, p.Errs[i])
		}
	}
	if p.Cov == nil {
		t.Fatal("expected a covariance matrix")
	}
	// standard errors are the square roots of the covariance diagonal
	for i := 0; i < vignette.NumCoefficients; i++ {
		if math.Abs(p.Errs[i]-math.Sqrt(p.Cov.At(i, i))) > 1e-12 {
			t.Errorf("k%d: error %g does not match covariance diagonal %g", i, p.Errs[i], p.Cov.At(i, i))
		}
	}
}

func TestModelAtCentreEqualsConstantTerm(t *testing.T) {
	if v := truth.Eval(0); v != truth.Coeffs[0] {
		t.Errorf("model at r=0 should equal k0 = %g, got %g", truth.Coeffs[0], v)
	}
	m := vignette.Apply(41, 41, truth)
	if math.Abs(m.At(20, 20)-truth.Coeffs[0]) > 1e-12 {
		t.Errorf("central pixel should be k0 = %g, got %g", truth.Coeffs[0], m.At(20, 20))
	}
}

func TestApplyDecouplesResolution(t *testing.T) {
	// the corners of any target shape sit at r = 1
	wantCorner := truth.Eval(1)
	for _, dims := range [][2]int{{21, 21}, {50, 30}, {301, 201}} {
		m := vignette.Apply(dims[0], dims[1], truth)
		if math.Abs(m.At(0, 0)-wantCorner) > 1e-12 {
			t.Errorf("shape %v: corner value %g, expected %g", dims, m.At(0, 0), wantCorner)
		}
	}
}

func TestDegenerateMapIsSingular(t *testing.T) {
	// a 3x3 map has only three distinct radii, too few for five coefficients
	corr := frame.Uniform(1, 3, 3)
	_, err := vignette.Fit(corr)
	if _, ok := err.(mathx.ErrSingularFit); !ok {
		t.Fatalf("expected ErrSingularFit, got %T: %v", err, err)
	}
}

func TestAllNaNMapIsSingular(t *testing.T) {
	corr := frame.Uniform(math.NaN(), 8, 8)
	_, err := vignette.Fit(corr)
	if _, ok := err.(mathx.ErrSingularFit); !ok {
		t.Fatalf("expected ErrSingularFit for an all-NaN map, got %T: %v", err, err)
	}
}

func TestWeightedFitRejectsShapeMismatch(t *testing.T) {
	corr := frame.Uniform(1, 10, 10)
	std := frame.Uniform(1, 5, 5)
	_, err := vignette.FitWeighted(corr, std)
	if _, ok := err.(frame.ErrShapeMismatch); !ok {
		t.Fatalf("expected ErrShapeMismatch, got %T: %v", err, err)
	}
}

func TestNormaliseChannels(t *testing.T) {
	// two-channel checkerboard: channel maxima normalise independently
	mean := frame.New(4, 2)
	bayer := make([]int, 8)
	for i := range mean.Data {
		if i%2 == 0 {
			mean.Data[i] = float64(10 + i)
			bayer[i] = 0
		} else {
			mean.Data[i] = float64(100 + i)
			bayer[i] = 1
		}
	}
	norm, err := vignette.NormaliseChannels(mean, bayer)
	if err != nil {
		t.Fatal(err)
	}
	if norm.Max() > 1 {
		t.Errorf("normalised data should not exceed 1, max %g", norm.Max())
	}
	if norm.Data[6] != 1 || norm.Data[7] != 1 {
		t.Errorf("each channel's maximum should normalise to exactly 1, got %g and %g", norm.Data[6], norm.Data[7])
	}
}
