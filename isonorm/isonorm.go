/*Package isonorm characterises the ISO-gain normalisation of a camera.

From mean signals of an identical scene shot at several ISO speeds it fits a
normalisation relation f(ISO), defined so that f at the camera's minimum ISO
speed is exactly 1, and discretises it into a lookup table over the camera's
full ISO range.  Applying the calibration then costs one array index instead
of a model evaluation.

The candidate models form a small closed set; the best fit is selected by the
coefficient of determination.
*/
package isonorm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/camlab/spectacle/mathx"
)

// varianceFloor bounds observation variances from below when building
// inverse-variance weights.
const varianceFloor = 1e-12

// ErrInsufficientData is generated when the observations cannot support a
// normalisation fit, most commonly because no measurement exists at the
// camera's minimum ISO speed.
type ErrInsufficientData struct {
	// MinISO is the camera's minimum ISO speed
	MinISO int

	// Reason describes what is missing
	Reason string
}

// Error satisfies the error interface
func (e ErrInsufficientData) Error() string {
	return fmt.Sprintf("insufficient ISO calibration data (minimum ISO %d): %s", e.MinISO, e.Reason)
}

// Observation is one measured point of the normalisation curve: the mean
// signal of the fixed scene at one ISO speed, with its standard error.
type Observation struct {
	ISO  float64
	Mean float64
	Err  float64
}

// ModelType tags one member of the closed set of normalisation models.
type ModelType int

// The candidate models.  Every candidate evaluates to exactly 1 at the
// camera's minimum ISO speed by construction.
const (
	// Linear is f(iso) = 1 + a*(iso - ISOmin)
	Linear ModelType = iota

	// Quadratic is f(iso) = 1 + a*(iso - ISOmin) + b*(iso - ISOmin)^2
	Quadratic

	// PowerLaw is f(iso) = (iso / ISOmin)^g
	PowerLaw
)

// String returns the model tag used in persisted model files.
func (t ModelType) String() string {
	switch t {
	case Linear:
		return "linear"
	case Quadratic:
		return "quadratic"
	case PowerLaw:
		return "powerlaw"
	}
	return fmt.Sprintf("ModelType(%d)", int(t))
}

// ParseModelType inverts String.
func ParseModelType(s string) (ModelType, error) {
	switch s {
	case "linear":
		return Linear, nil
	case "quadratic":
		return Quadratic, nil
	case "powerlaw":
		return PowerLaw, nil
	}
	return 0, fmt.Errorf("unknown ISO normalisation model type %q", s)
}

// nparams returns the free parameter count of the model.
func (t ModelType) nparams() int {
	switch t {
	case Quadratic:
		return 2
	default:
		return 1
	}
}

// Model is a fitted normalisation relation.
type Model struct {
	// Type selects the functional form
	Type ModelType

	// Params are the fitted parameters; their meaning depends on Type
	Params []float64

	// Errs are the one-sigma parameter uncertainties
	Errs []float64

	// R2 is the weighted coefficient of determination of the fit
	R2 float64

	// ISOMin, ISOMax are the camera's ISO range the model was fit for
	ISOMin, ISOMax int
}

// Evaluate returns the normalisation factor at the given ISO speed.
func (m Model) Evaluate(iso float64) float64 {
	x := iso - float64(m.ISOMin)
	switch m.Type {
	case Linear:
		return 1 + m.Params[0]*x
	case Quadratic:
		return 1 + m.Params[0]*x + m.Params[1]*x*x
	case PowerLaw:
		return math.Pow(iso/float64(m.ISOMin), m.Params[0])
	}
	return math.NaN()
}

// Fit normalises the observations to the measurement at the minimum ISO
// speed, fits every candidate model by weighted least squares and returns the
// one with the highest R2.  An observation exactly at isoMin must be present.
func Fit(obs []Observation, isoMin, isoMax int) (Model, error) {
	if len(obs) < 3 {
		return Model{}, ErrInsufficientData{MinISO: isoMin, Reason: fmt.Sprintf("%d observations, need at least 3", len(obs))}
	}
	ref := -1
	for i, o := range obs {
		if o.ISO == float64(isoMin) {
			ref = i
			break
		}
	}
	if ref < 0 {
		return Model{}, ErrInsufficientData{MinISO: isoMin, Reason: "no measurement at the minimum ISO speed"}
	}
	refMean := obs[ref].Mean
	if refMean <= 0 {
		return Model{}, ErrInsufficientData{MinISO: isoMin, Reason: "non-positive signal at the minimum ISO speed"}
	}

	// ratios relative to the minimum-ISO measurement, with first-order error
	// propagation; weights are clamped inverse variances
	isos := make([]float64, len(obs))
	ratios := make([]float64, len(obs))
	weights := make([]float64, len(obs))
	refRel := obs[ref].Err / refMean
	for i, o := range obs {
		isos[i] = o.ISO
		ratios[i] = o.Mean / refMean
		rel := 0.0
		if o.Mean != 0 {
			rel = o.Err / o.Mean
		}
		variance := ratios[i] * ratios[i] * (rel*rel + refRel*refRel)
		weights[i] = 1 / mathx.ClampVariance(variance, varianceFloor)
	}

	best := Model{}
	bestSet := false
	for _, t := range []ModelType{Linear, Quadratic, PowerLaw} {
		m, err := fitOne(t, isos, ratios, weights, isoMin, isoMax)
		if err != nil {
			// a degenerate candidate is skipped, not fatal, as long as one
			// candidate converges
			continue
		}
		if !bestSet || m.R2 > best.R2 {
			best = m
			bestSet = true
		}
	}
	if !bestSet {
		return Model{}, mathx.ErrSingularFit{Points: len(obs), Params: 1}
	}
	return best, nil
}

// fitOne fits a single candidate model.  All candidates are linear in their
// parameters after transforming the ratio data, so each reduces to one
// weighted least-squares solve.
func fitOne(t ModelType, isos, ratios, weights []float64, isoMin, isoMax int) (Model, error) {
	n := len(isos)
	p := t.nparams()
	rows := make([]float64, 0, n*p)
	y := make([]float64, 0, n)
	w := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x := isos[i] - float64(isoMin)
		switch t {
		case Linear:
			rows = append(rows, x)
			y = append(y, ratios[i]-1)
			w = append(w, weights[i])
		case Quadratic:
			rows = append(rows, x, x*x)
			y = append(y, ratios[i]-1)
			w = append(w, weights[i])
		case PowerLaw:
			// log-linearised: ln(ratio) = g * ln(iso/ISOmin); the weight
			// transforms by the delta method, d(ln r)/dr = 1/r
			if ratios[i] <= 0 || isos[i] <= 0 {
				continue
			}
			rows = append(rows, math.Log(isos[i]/float64(isoMin)))
			y = append(y, math.Log(ratios[i]))
			w = append(w, weights[i]*ratios[i]*ratios[i])
		}
	}
	a := mat.NewDense(len(y), p, rows)
	res, err := mathx.WeightedLeastSquares(a, y, w)
	if err != nil {
		return Model{}, err
	}
	m := Model{Type: t, Params: res.Coeffs, Errs: res.Errs, ISOMin: isoMin, ISOMax: isoMax}

	// R2 is computed on the untransformed ratios so candidates are compared
	// on equal footing
	yhat := make([]float64, n)
	for i := 0; i < n; i++ {
		yhat[i] = m.Evaluate(isos[i])
	}
	m.R2 = mathx.RSquared(ratios, yhat, weights)
	return m, nil
}
