package vignette

import (
	"math"

	"github.com/camlab/spectacle/camera"
	"github.com/camlab/spectacle/frame"
)

// NormaliseChannels scales each Bayer channel of a mean flat-field frame to a
// maximum of 1, using the camera's Bayer map to assign pixels to channels.
// The correction factor map is then the reciprocal of the result.
func NormaliseChannels(mean frame.Frame, bayer []int) (frame.Frame, error) {
	if len(bayer) != len(mean.Data) {
		return frame.Frame{}, frame.ErrShapeMismatch{Op: "channel normalisation", WantW: mean.W, WantH: mean.H, GotW: len(bayer), GotH: 1}
	}
	var maxima [4]float64
	for i := range maxima {
		maxima[i] = math.Inf(-1)
	}
	for i, v := range mean.Data {
		if math.IsNaN(v) {
			continue
		}
		ch := bayer[i]
		if v > maxima[ch] {
			maxima[ch] = v
		}
	}
	out := frame.New(mean.W, mean.H)
	for i, v := range mean.Data {
		out.Data[i] = v / maxima[bayer[i]]
	}
	return out, nil
}

// CorrectionMap derives the flat-field correction factor map from a
// bias-corrected mean flat-field frame: channels are normalised to unit
// maximum and the per-pixel reciprocal taken, so factors are >= 1 away from
// the brightest pixel of each channel.
func CorrectionMap(mean frame.Frame, cam *camera.Camera) (frame.Frame, error) {
	norm, err := NormaliseChannels(mean, cam.BayerMap())
	if err != nil {
		return frame.Frame{}, err
	}
	return norm.Reciprocal(), nil
}
