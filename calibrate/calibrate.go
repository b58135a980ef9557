/*Package calibrate applies the radiometric correction chain to raw sensor
data.

A Calibrator is built from explicit dependencies: the camera metadata and the
calibration artifact store.  Each correction stage is independently callable
and pure; input frames are never mutated.  When composing a full correction
the stages always run in this order:

	bias -> dark current -> flat field -> ISO normalisation -> gain

which takes raw ADU through normalised ADU to photoelectrons.  If any stage
fails the chain aborts; there is no partially corrected result.
*/
package calibrate

import (
	"fmt"
	"log"

	"github.com/camlab/spectacle/caldata"
	"github.com/camlab/spectacle/camera"
	"github.com/camlab/spectacle/frame"
)

// Calibrator applies calibration artifacts from a store to sensor data from
// one camera.
type Calibrator struct {
	cam   *camera.Camera
	store *caldata.Store

	flatLabel string
}

// New returns a Calibrator for the camera backed by the store.
func New(cam *camera.Camera, store *caldata.Store) *Calibrator {
	return &Calibrator{cam: cam, store: store}
}

// Camera returns the camera this calibrator corrects for.
func (c *Calibrator) Camera() *camera.Camera {
	return c.cam
}

// SetFlatFieldLabel selects which flat-field artifact the chain applies, for
// stores holding one map per label (e.g. per ISO speed).  The default is the
// unlabelled artifact.
func (c *Calibrator) SetFlatFieldLabel(label string) {
	c.flatLabel = label
}

// subtract applies a resolved map to data by subtraction, scaling the map by
// scale first.
func subtract(data frame.Frame, m caldata.Map, scale float64) (frame.Frame, error) {
	if m.PerPixel {
		return data.Sub(m.Frame.MulScalar(scale))
	}
	return data.SubScalar(m.Scalar * scale), nil
}

// CorrectBias subtracts the bias level from data.  A calibrated bias map is
// preferred; the nominal level from camera metadata is the fallback.
func (c *Calibrator) CorrectBias(data frame.Frame) (frame.Frame, error) {
	m, err := c.store.LoadMap(c.cam, caldata.Bias, "")
	if err != nil {
		return frame.Frame{}, err
	}
	if m.FromMetadata {
		log.Printf("using bias level %g from camera metadata for %s", m.Scalar, c.cam)
	}
	return subtract(data, m, 1)
}

// CorrectDarkCurrent subtracts the accumulated dark signal: the dark-current
// rate map (normalised ADU per second) scaled by the exposure time in
// seconds.  There is no metadata fallback for dark current.
func (c *Calibrator) CorrectDarkCurrent(data frame.Frame, exposureTime float64) (frame.Frame, error) {
	m, err := c.store.LoadMap(c.cam, caldata.DarkCurrent, "")
	if err != nil {
		return frame.Frame{}, err
	}
	return subtract(data, m, exposureTime)
}

// CorrectFlatField multiplies data by the flat-field correction map after
// clipping the data to the map's valid region.  The map loaded is the one
// under the configured label (see SetFlatFieldLabel).  Data that cannot be
// clipped to the map shape is a shape error.
func (c *Calibrator) CorrectFlatField(data frame.Frame) (frame.Frame, error) {
	m, err := c.store.LoadMap(c.cam, caldata.FlatField, c.flatLabel)
	if err != nil {
		return frame.Frame{}, err
	}
	if !m.PerPixel {
		return frame.Frame{}, fmt.Errorf("flat-field artifact for camera %s is not a pixel map", c.cam)
	}
	clipped, err := data.ClipTo(m.Frame.W, m.Frame.H)
	if err != nil {
		return frame.Frame{}, err
	}
	return clipped.Mul(m.Frame)
}

// NormaliseISO divides data by the normalisation factor for the ISO speed it
// was taken at, looked up in the camera's ISO table.
func (c *Calibrator) NormaliseISO(data frame.Frame, iso float64) (frame.Frame, error) {
	t, err := c.store.LoadLookupTable(c.cam)
	if err != nil {
		return frame.Frame{}, err
	}
	factor, err := t.Factor(iso)
	if err != nil {
		return frame.Frame{}, err
	}
	return data.DivScalar(factor), nil
}

// NormaliseISOStack normalises a stack of frames, each taken at its own ISO
// speed.  isos must have one entry per frame.
func (c *Calibrator) NormaliseISOStack(stack []frame.Frame, isos []float64) ([]frame.Frame, error) {
	if len(stack) != len(isos) {
		return nil, fmt.Errorf("stack of %d frames with %d ISO values", len(stack), len(isos))
	}
	t, err := c.store.LoadLookupTable(c.cam)
	if err != nil {
		return nil, err
	}
	out := make([]frame.Frame, len(stack))
	for i, f := range stack {
		factor, err := t.Factor(isos[i])
		if err != nil {
			return nil, err
		}
		out[i] = f.DivScalar(factor)
	}
	return out, nil
}

// ConvertToPhotoelectrons divides ISO-normalised data by the gain map
// (normalised ADU per photoelectron), yielding photoelectrons.  A calibrated
// gain map is preferred; a nominal scalar gain from camera metadata is the
// fallback.  A gain map that does not match the data shape is a shape error.
func (c *Calibrator) ConvertToPhotoelectrons(data frame.Frame) (frame.Frame, error) {
	m, err := c.store.LoadMap(c.cam, caldata.Gain, "")
	if err != nil {
		return frame.Frame{}, err
	}
	if m.PerPixel {
		return data.Div(m.Frame)
	}
	return data.DivScalar(m.Scalar), nil
}

// Correct runs the full correction chain in its fixed order on a raw frame
// taken at the given exposure time and ISO speed.
func (c *Calibrator) Correct(data frame.Frame, exposureTime, iso float64) (frame.Frame, error) {
	out, err := c.CorrectBias(data)
	if err != nil {
		return frame.Frame{}, err
	}
	out, err = c.CorrectDarkCurrent(out, exposureTime)
	if err != nil {
		return frame.Frame{}, err
	}
	out, err = c.CorrectFlatField(out)
	if err != nil {
		return frame.Frame{}, err
	}
	out, err = c.NormaliseISO(out, iso)
	if err != nil {
		return frame.Frame{}, err
	}
	return c.ConvertToPhotoelectrons(out)
}
