/*Package camera describes the physical and acquisition properties of a camera
being radiometrically calibrated.

A Camera is built once from a metadata file and is read-only afterwards.  It
bundles three records: the device identity, the image/sensor geometry, and the
acquisition settings.  The Bayer map derived from the sensor geometry is
computed at construction and cached.
*/
package camera

import (
	"fmt"
)

// Bayer channel indices used in the map produced by GenerateBayerMap.
const (
	R = iota
	G
	B
	G2
)

// ErrMissingField is generated when a camera metadata file lacks a required
// field.
type ErrMissingField struct {
	// Section is the metadata group, e.g. "image"
	Section string

	// Field is the specific missing field, e.g. "bayer_pattern"
	Field string
}

// Error satisfies the error interface
func (e ErrMissingField) Error() string {
	return fmt.Sprintf("camera metadata is missing required field %s.%s", e.Section, e.Field)
}

// Device identifies the camera hardware.
type Device struct {
	Manufacturer string `koanf:"manufacturer"`
	Name         string `koanf:"name"`
}

// Image describes the sensor geometry and static image properties.
type Image struct {
	// Shape is the sensor extent as (height, width), matching the row-major
	// layout of raw files
	Shape [2]int `koanf:"shape"`

	// RawExtension is the raw file extension including the dot, e.g. ".dng"
	RawExtension string `koanf:"raw_extension"`

	// Bias is the nominal bias level in ADU, used when no bias map has been
	// calibrated
	Bias float64 `koanf:"bias"`

	// BayerPattern is the 2x2 color filter tile, row major, using the channel
	// indices R, G, B, G2
	BayerPattern [2][2]int `koanf:"bayer_pattern"`

	// BitDepth is the ADC bit depth
	BitDepth int `koanf:"bit_depth"`

	// Gain is the nominal gain in normalised ADU per photoelectron.  Zero
	// means unknown; there is then no fallback for the gain calibration.
	Gain float64 `koanf:"gain"`
}

// Settings holds the acquisition parameter ranges.
type Settings struct {
	ISOMin      int     `koanf:"iso_min"`
	ISOMax      int     `koanf:"iso_max"`
	ExposureMin float64 `koanf:"exposure_min"`
	ExposureMax float64 `koanf:"exposure_max"`
}

// Camera aggregates the three metadata records.  Use New or Load to build one;
// fields are not to be mutated afterwards.
type Camera struct {
	Device   Device
	Image    Image
	Settings Settings

	bayer []int
}

// New validates the three records and returns a Camera with its Bayer map
// precomputed.
func New(d Device, i Image, s Settings) (*Camera, error) {
	c := &Camera{Device: d, Image: i, Settings: s}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.bayer = c.GenerateBayerMap()
	return c, nil
}

func (c *Camera) validate() error {
	switch {
	case c.Device.Manufacturer == "":
		return ErrMissingField{Section: "device", Field: "manufacturer"}
	case c.Device.Name == "":
		return ErrMissingField{Section: "device", Field: "name"}
	case c.Image.Shape[0] < 1 || c.Image.Shape[1] < 1:
		return ErrMissingField{Section: "image", Field: "shape"}
	case c.Image.RawExtension == "":
		return ErrMissingField{Section: "image", Field: "raw_extension"}
	case c.Image.BitDepth < 1:
		return ErrMissingField{Section: "image", Field: "bit_depth"}
	case c.Settings.ISOMin < 1 || c.Settings.ISOMax < c.Settings.ISOMin:
		return ErrMissingField{Section: "settings", Field: "iso_min"}
	case c.Settings.ExposureMax <= 0 || c.Settings.ExposureMax < c.Settings.ExposureMin:
		return ErrMissingField{Section: "settings", Field: "exposure_max"}
	}
	for _, row := range c.Image.BayerPattern {
		for _, v := range row {
			if v < R || v > G2 {
				return ErrMissingField{Section: "image", Field: "bayer_pattern"}
			}
		}
	}
	return nil
}

// String renders the camera as "Manufacturer Name".
func (c *Camera) String() string {
	return fmt.Sprintf("%s %s", c.Device.Manufacturer, c.Device.Name)
}

// Equal reports whether two cameras have identical metadata.  Identity of the
// pointers is irrelevant.
func (c *Camera) Equal(other *Camera) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Device == other.Device && c.Image == other.Image && c.Settings == other.Settings
}

// Width returns the sensor width in pixels.
func (c *Camera) Width() int { return c.Image.Shape[1] }

// Height returns the sensor height in pixels.
func (c *Camera) Height() int { return c.Image.Shape[0] }

// GenerateBayerMap tiles the 2x2 Bayer pattern across the full sensor by row
// and column parity.  The result is row major with the same shape as the
// sensor.
func (c *Camera) GenerateBayerMap() []int {
	h, w := c.Image.Shape[0], c.Image.Shape[1]
	m := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m[y*w+x] = c.Image.BayerPattern[y%2][x%2]
		}
	}
	return m
}

// BayerMap returns the cached Bayer map computed at construction.  Callers
// must not modify it.
func (c *Camera) BayerMap() []int {
	return c.bayer
}
