package frame

import "math"

// MeanStack reduces a stack of equally shaped frames to their per-pixel mean.
// NaN samples are excluded pixel by pixel.
func MeanStack(frames []Frame) (Frame, error) {
	if len(frames) == 0 {
		return Frame{}, ErrShapeMismatch{Op: "mean stack"}
	}
	first := frames[0]
	for _, f := range frames[1:] {
		if !first.SameShape(f) {
			return Frame{}, ErrShapeMismatch{Op: "mean stack", WantW: first.W, WantH: first.H, GotW: f.W, GotH: f.H}
		}
	}
	out := New(first.W, first.H)
	counts := make([]int, len(out.Data))
	for _, f := range frames {
		for i, v := range f.Data {
			if math.IsNaN(v) {
				continue
			}
			out.Data[i] += v
			counts[i]++
		}
	}
	for i := range out.Data {
		if counts[i] == 0 {
			out.Data[i] = math.NaN()
			continue
		}
		out.Data[i] /= float64(counts[i])
	}
	return out, nil
}

// StdStack reduces a stack of equally shaped frames to their per-pixel sample
// standard deviation (n-1 denominator).  Pixels with fewer than two finite
// samples come out NaN.
func StdStack(frames []Frame) (Frame, error) {
	mean, err := MeanStack(frames)
	if err != nil {
		return Frame{}, err
	}
	out := New(mean.W, mean.H)
	counts := make([]int, len(out.Data))
	for _, f := range frames {
		for i, v := range f.Data {
			if math.IsNaN(v) || math.IsNaN(mean.Data[i]) {
				continue
			}
			d := v - mean.Data[i]
			out.Data[i] += d * d
			counts[i]++
		}
	}
	for i := range out.Data {
		if counts[i] < 2 {
			out.Data[i] = math.NaN()
			continue
		}
		out.Data[i] = math.Sqrt(out.Data[i] / float64(counts[i]-1))
	}
	return out, nil
}
