/*Package vignette fits a radial intensity-falloff model to flat-field
correction maps and reconstructs full-resolution correction maps from the
fitted parameters.

The model is an even polynomial in the normalised radius r (distance from the
map centre divided by the largest corner distance):

	f(r) = k0 + k1*r^2 + k2*r^4 + k3*r^6 + k4*r^8

Only even powers enter, which enforces radial symmetry and smoothness at the
centre.  The model is fit by weighted least squares; because it is evaluated
from a compact parameter vector, the correction map resolution is decoupled
from the resolution the model was fit at.
*/
package vignette

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/camlab/spectacle/frame"
	"github.com/camlab/spectacle/mathx"
)

// NumCoefficients is the length of the radial model parameter vector.
const NumCoefficients = 5

// varianceFloor bounds the per-pixel variance from below when weighting the
// fit, so near-noiseless pixels cannot dominate it.
const varianceFloor = 1e-12

// Parameters holds the fitted radial model and its uncertainty.
type Parameters struct {
	// Coeffs are the polynomial coefficients k0..k4
	Coeffs [NumCoefficients]float64

	// Errs are the one-sigma coefficient uncertainties
	Errs [NumCoefficients]float64

	// Cov is the full coefficient covariance matrix
	Cov *mat.SymDense
}

// Eval evaluates the radial model at normalised radius r.
func (p Parameters) Eval(r float64) float64 {
	r2 := r * r
	out := 0.0
	pow := 1.0
	for _, k := range p.Coeffs {
		out += k * pow
		pow *= r2
	}
	return out
}

// normRadius returns the Euclidean distance of pixel (x, y) from the
// geometric centre of a w x h array, normalised by the largest possible
// distance so that the far corners sit at r = 1.
func normRadius(x, y, w, h int) float64 {
	cx := float64(w-1) / 2
	cy := float64(h-1) / 2
	dx := float64(x) - cx
	dy := float64(y) - cy
	return math.Hypot(dx, dy) / math.Hypot(cx, cy)
}

// Fit performs an unweighted least-squares fit of the radial model to a
// flat-field correction map.  NaN pixels are excluded from the regression.
func Fit(corr frame.Frame) (Parameters, error) {
	return FitWeighted(corr, frame.Frame{})
}

// FitWeighted fits the radial model with inverse-variance weights taken from
// a per-pixel standard deviation map.  Pass a zero frame for std to weight
// all pixels equally.  NaN pixels in either input are excluded, not zeroed.
func FitWeighted(corr, std frame.Frame) (Parameters, error) {
	weighted := len(std.Data) > 0
	if weighted && !corr.SameShape(std) {
		return Parameters{}, frame.ErrShapeMismatch{Op: "vignetting fit weights", WantW: corr.W, WantH: corr.H, GotW: std.W, GotH: std.H}
	}

	rows := make([]float64, 0, len(corr.Data)*NumCoefficients)
	y := make([]float64, 0, len(corr.Data))
	w := make([]float64, 0, len(corr.Data))
	for yy := 0; yy < corr.H; yy++ {
		for xx := 0; xx < corr.W; xx++ {
			v := corr.At(xx, yy)
			if math.IsNaN(v) {
				continue
			}
			weight := 1.0
			if weighted {
				s := std.At(xx, yy)
				if math.IsNaN(s) {
					continue
				}
				weight = 1 / mathx.ClampVariance(s*s, varianceFloor)
			}
			r2 := math.Pow(normRadius(xx, yy, corr.W, corr.H), 2)
			pow := 1.0
			for j := 0; j < NumCoefficients; j++ {
				rows = append(rows, pow)
				pow *= r2
			}
			y = append(y, v)
			w = append(w, weight)
		}
	}

	if len(y) <= NumCoefficients {
		return Parameters{}, mathx.ErrSingularFit{Points: len(y), Params: NumCoefficients}
	}
	a := mat.NewDense(len(y), NumCoefficients, rows)
	res, err := mathx.WeightedLeastSquares(a, y, w)
	if err != nil {
		return Parameters{}, err
	}
	p := Parameters{Cov: res.Cov}
	copy(p.Coeffs[:], res.Coeffs)
	copy(p.Errs[:], res.Errs)
	return p, nil
}

// Apply evaluates the fitted model over a w x h grid, synthesising a
// full-resolution correction map.
func Apply(w, h int, p Parameters) frame.Frame {
	out := frame.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, p.Eval(normRadius(x, y, w, h)))
		}
	}
	return out
}
