// Package frame holds 2D image frames as strided float64 buffers and the
// elementwise operations the calibration chain is built from.
//
// Data is row major; the pixel at column x, row y lives at index y*W+x,
// matching the strided camera buffers elsewhere in this codebase.
package frame

import (
	"fmt"
	"math"
)

// ErrShapeMismatch is generated when two frames that must share a shape do not.
type ErrShapeMismatch struct {
	// Op is the operation that was attempted, e.g. "multiply"
	Op string

	// WantW, WantH are the expected dimensions
	WantW, WantH int

	// GotW, GotH are the dimensions actually received
	GotW, GotH int
}

// Error satisfies the error interface
func (e ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want (%d, %d), got (%d, %d)", e.Op, e.WantW, e.WantH, e.GotW, e.GotH)
}

// Frame is a single 2D image or map.  The zero value is an empty frame.
type Frame struct {
	// Data is the row-major pixel buffer, len W*H
	Data []float64

	// W is the width (number of columns)
	W int

	// H is the height (number of rows)
	H int
}

// New allocates a zero-filled frame of the given dimensions.
func New(w, h int) Frame {
	return Frame{Data: make([]float64, w*h), W: w, H: h}
}

// FromSlice wraps an existing buffer as a frame.  The buffer is not copied.
func FromSlice(data []float64, w, h int) (Frame, error) {
	if len(data) != w*h {
		return Frame{}, fmt.Errorf("buffer of length %d cannot hold a (%d, %d) frame", len(data), w, h)
	}
	return Frame{Data: data, W: w, H: h}, nil
}

// Uniform returns a frame with every pixel set to v.
func Uniform(v float64, w, h int) Frame {
	f := New(w, h)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

// At returns the pixel at column x, row y.
func (f Frame) At(x, y int) float64 {
	return f.Data[y*f.W+x]
}

// Set assigns the pixel at column x, row y.
func (f Frame) Set(x, y int, v float64) {
	f.Data[y*f.W+x] = v
}

// Clone returns a deep copy of f.
func (f Frame) Clone() Frame {
	out := New(f.W, f.H)
	copy(out.Data, f.Data)
	return out
}

// SameShape reports whether f and other have identical dimensions.
func (f Frame) SameShape(other Frame) bool {
	return f.W == other.W && f.H == other.H
}

// apply returns a new frame with fn applied to every pixel of f.
func (f Frame) apply(fn func(float64) float64) Frame {
	out := New(f.W, f.H)
	for i, v := range f.Data {
		out.Data[i] = fn(v)
	}
	return out
}

// zip returns a new frame combining f and other pixel-wise, or a shape error.
func (f Frame) zip(op string, other Frame, fn func(a, b float64) float64) (Frame, error) {
	if !f.SameShape(other) {
		return Frame{}, ErrShapeMismatch{Op: op, WantW: f.W, WantH: f.H, GotW: other.W, GotH: other.H}
	}
	out := New(f.W, f.H)
	for i := range f.Data {
		out.Data[i] = fn(f.Data[i], other.Data[i])
	}
	return out, nil
}

// Sub returns f - other.
func (f Frame) Sub(other Frame) (Frame, error) {
	return f.zip("subtract", other, func(a, b float64) float64 { return a - b })
}

// Mul returns f * other, elementwise.
func (f Frame) Mul(other Frame) (Frame, error) {
	return f.zip("multiply", other, func(a, b float64) float64 { return a * b })
}

// Div returns f / other, elementwise.
func (f Frame) Div(other Frame) (Frame, error) {
	return f.zip("divide", other, func(a, b float64) float64 { return a / b })
}

// SubScalar returns f - v.
func (f Frame) SubScalar(v float64) Frame {
	return f.apply(func(a float64) float64 { return a - v })
}

// MulScalar returns f * v.
func (f Frame) MulScalar(v float64) Frame {
	return f.apply(func(a float64) float64 { return a * v })
}

// DivScalar returns f / v.
func (f Frame) DivScalar(v float64) Frame {
	return f.apply(func(a float64) float64 { return a / v })
}

// Reciprocal returns 1 / f, elementwise.
func (f Frame) Reciprocal() Frame {
	return f.apply(func(a float64) float64 { return 1 / a })
}

// Clip returns a copy of f with a border of margin pixels removed on every
// side.  Flat-field correction maps discard the sensor edges this way before
// model fitting.
func (f Frame) Clip(margin int) (Frame, error) {
	return f.ClipTo(f.W-2*margin, f.H-2*margin)
}

// ClipTo returns the centered w x h sub-frame of f.  The crop must be centered
// exactly; a parity disagreement between f and the target shape is an error.
func (f Frame) ClipTo(w, h int) (Frame, error) {
	if w > f.W || h > f.H || w < 1 || h < 1 {
		return Frame{}, ErrShapeMismatch{Op: "clip", WantW: w, WantH: h, GotW: f.W, GotH: f.H}
	}
	dx := f.W - w
	dy := f.H - h
	if dx%2 != 0 || dy%2 != 0 {
		return Frame{}, ErrShapeMismatch{Op: "clip", WantW: w, WantH: h, GotW: f.W, GotH: f.H}
	}
	x0 := dx / 2
	y0 := dy / 2
	out := New(w, h)
	for y := 0; y < h; y++ {
		srcRow := (y+y0)*f.W + x0
		copy(out.Data[y*w:(y+1)*w], f.Data[srcRow:srcRow+w])
	}
	return out, nil
}

// Mean returns the mean of all finite pixels.  NaNs are skipped, not zeroed.
func (f Frame) Mean() float64 {
	sum := 0.0
	n := 0
	for _, v := range f.Data {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Max returns the largest finite pixel value.
func (f Frame) Max() float64 {
	max := math.Inf(-1)
	for _, v := range f.Data {
		if math.IsNaN(v) {
			continue
		}
		if v > max {
			max = v
		}
	}
	return max
}
