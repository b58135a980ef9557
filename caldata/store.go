/*Package caldata persists and resolves per-camera calibration artifacts.

Pixel maps (bias, read noise, dark current, flat field, gain) are stored as
FITS files; model parameters and lookup tables are CSV.  Artifacts live under
a camera-scoped directory below the store root.  Saving overwrites without
versioning; a calibration run per camera and kind at a time is an operational
rule, not something the store enforces.

Loading a pixel map walks an ordered resolution chain: the artifact file
first; for the bias and gain kinds a scalar derived from camera metadata next;
otherwise the load fails with ErrCalibrationNotFound.
*/
package caldata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"

	"github.com/camlab/spectacle/camera"
	"github.com/camlab/spectacle/frame"
)

// Kind identifies one calibration artifact family.
type Kind int

// The pixel-map artifact kinds.
const (
	Bias Kind = iota
	ReadNoise
	DarkCurrent
	FlatField
	Gain
)

// String names the kind as used in artifact filenames.
func (k Kind) String() string {
	switch k {
	case Bias:
		return "bias"
	case ReadNoise:
		return "readnoise"
	case DarkCurrent:
		return "dark_current"
	case FlatField:
		return "flatfield_correction"
	case Gain:
		return "gain"
	case FlatFieldModel:
		return "flatfield_parameters"
	case ISOModel:
		return "iso_normalisation_model"
	case ISOLookup:
		return "iso_normalisation_lookup_table"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrCalibrationNotFound is generated when no artifact exists for a requested
// camera and kind, and the kind admits no metadata fallback.
type ErrCalibrationNotFound struct {
	// Camera is the camera the lookup was for
	Camera string

	// Kind is the calibration kind that is missing
	Kind Kind

	// Label is the optional artifact label, e.g. an ISO speed
	Label string
}

// Error satisfies the error interface
func (e ErrCalibrationNotFound) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("no %s calibration (label %q) available for camera %s", e.Kind, e.Label, e.Camera)
	}
	return fmt.Sprintf("no %s calibration available for camera %s", e.Kind, e.Camera)
}

// Map is one resolved calibration artifact: either a per-pixel frame or a
// scalar.  Maps are produced by offline calibration runs and read-only at
// application time.
type Map struct {
	Kind  Kind
	Label string

	// Frame holds the per-pixel data when PerPixel is true
	Frame frame.Frame

	// Scalar holds the value when PerPixel is false
	Scalar float64

	// PerPixel distinguishes the two representations
	PerPixel bool

	// FromMetadata is true when the value came from the camera metadata
	// fallback rather than an artifact file
	FromMetadata bool
}

// Store resolves calibration artifacts below a root directory.
type Store struct {
	// Root is the storage root; each camera gets a subdirectory
	Root string
}

// New returns a store rooted at the given directory.
func New(root string) *Store {
	return &Store{Root: root}
}

// cameraDir returns the per-camera artifact directory.
func (s *Store) cameraDir(cam *camera.Camera) string {
	slug := strings.ToLower(cam.Device.Manufacturer + "_" + cam.Device.Name)
	slug = strings.ReplaceAll(slug, " ", "_")
	return filepath.Join(s.Root, slug)
}

// mapPath returns the FITS path of a pixel-map artifact.
func (s *Store) mapPath(cam *camera.Camera, kind Kind, label string) string {
	name := kind.String()
	if label != "" {
		name += "_" + label
	}
	return filepath.Join(s.cameraDir(cam), name+".fits")
}

// LoadMap resolves a pixel-map artifact for the camera.  The label
// disambiguates artifacts of one kind, e.g. the ISO speed a flat field was
// measured at; pass "" when there is none.
func (s *Store) LoadMap(cam *camera.Camera, kind Kind, label string) (Map, error) {
	path := s.mapPath(cam, kind, label)
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		fr, err := frame.ReadFITS(f)
		if err != nil {
			return Map{}, fmt.Errorf("reading %s map for camera %s: %w", kind, cam, err)
		}
		return Map{Kind: kind, Label: label, Frame: fr, PerPixel: true}, nil
	}
	if !os.IsNotExist(err) {
		return Map{}, err
	}

	// no artifact file; bias and gain admit a scalar metadata fallback
	switch kind {
	case Bias:
		return Map{Kind: kind, Label: label, Scalar: cam.Image.Bias, FromMetadata: true}, nil
	case Gain:
		if cam.Image.Gain > 0 {
			return Map{Kind: kind, Label: label, Scalar: cam.Image.Gain, FromMetadata: true}, nil
		}
	}
	return Map{}, ErrCalibrationNotFound{Camera: cam.String(), Kind: kind, Label: label}
}

// SaveMap persists a pixel-map artifact, replacing any previous one with the
// same camera, kind and label.
func (s *Store) SaveMap(cam *camera.Camera, kind Kind, label string, fr frame.Frame) error {
	if err := os.MkdirAll(s.cameraDir(cam), 0777); err != nil {
		return err
	}
	f, err := os.Create(s.mapPath(cam, kind, label))
	if err != nil {
		return err
	}
	defer f.Close()
	cards := []fitsio.Card{
		{Name: "CAMERA", Value: cam.String(), Comment: "camera this calibration belongs to"},
		{Name: "CALKIND", Value: kind.String(), Comment: "calibration kind"},
	}
	if label != "" {
		cards = append(cards, fitsio.Card{Name: "CALLABEL", Value: label, Comment: "artifact label"})
	}
	return frame.WriteFITS(f, fr, cards...)
}
