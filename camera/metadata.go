package camera

import (
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
)

// requiredFields is every metadata path that must be present in a camera
// file.  image.gain is deliberately absent; it is optional.
var requiredFields = [][2]string{
	{"device", "manufacturer"},
	{"device", "name"},
	{"image", "shape"},
	{"image", "raw_extension"},
	{"image", "bias"},
	{"image", "bayer_pattern"},
	{"image", "bit_depth"},
	{"settings", "iso_min"},
	{"settings", "iso_max"},
	{"settings", "exposure_min"},
	{"settings", "exposure_max"},
}

// Load reads a camera metadata JSON file and returns the validated Camera.
// Missing required fields surface as ErrMissingField.
func Load(path string) (*Camera, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, err
	}
	for _, f := range requiredFields {
		if !k.Exists(f[0] + "." + f[1]) {
			return nil, ErrMissingField{Section: f[0], Field: f[1]}
		}
	}
	var (
		d Device
		i Image
		s Settings
	)
	if err := k.Unmarshal("device", &d); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("image", &i); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("settings", &s); err != nil {
		return nil, err
	}
	return New(d, i, s)
}
