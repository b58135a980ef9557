package camera_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/camlab/spectacle/camera"
)

func testCamera(t *testing.T) *camera.Camera {
	t.Helper()
	cam, err := camera.New(
		camera.Device{Manufacturer: "Apple", Name: "iPhone SE"},
		camera.Image{
			Shape:        [2]int{6, 8},
			RawExtension: ".dng",
			Bias:         528,
			BayerPattern: [2][2]int{{camera.R, camera.G}, {camera.G2, camera.B}},
			BitDepth:     12,
		},
		camera.Settings{ISOMin: 23, ISOMax: 1840, ExposureMin: 1. / 100000, ExposureMax: 0.5},
	)
	if err != nil {
		t.Fatalf("could not build test camera: %v", err)
	}
	return cam
}

func TestBayerMapTilesByParity(t *testing.T) {
	cam := testCamera(t)
	m := cam.BayerMap()
	w, h := cam.Width(), cam.Height()
	if len(m) != w*h {
		t.Fatalf("bayer map has %d entries for a %dx%d sensor", len(m), w, h)
	}
	pattern := cam.Image.BayerPattern
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := pattern[y%2][x%2]
			if m[y*w+x] != want {
				t.Errorf("pixel (%d, %d): expected channel %d, got %d", x, y, want, m[y*w+x])
			}
		}
	}
}

func TestBayerMapChannelCounts(t *testing.T) {
	// odd dimensions: each channel count differs by at most the odd remainder
	cam, err := camera.New(
		camera.Device{Manufacturer: "Test", Name: "OddSensor"},
		camera.Image{
			Shape:        [2]int{5, 7},
			RawExtension: ".raw",
			Bias:         100,
			BayerPattern: [2][2]int{{camera.R, camera.G}, {camera.G2, camera.B}},
			BitDepth:     10,
		},
		camera.Settings{ISOMin: 100, ISOMax: 3200, ExposureMin: 0.001, ExposureMax: 30},
	)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[int]int{}
	for _, v := range cam.BayerMap() {
		counts[v]++
	}
	if len(counts) != 4 {
		t.Fatalf("expected exactly 4 channels, got %d", len(counts))
	}
	min, max := 5*7, 0
	for _, n := range counts {
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	// a 5x7 sensor has 12/9/8/6-ish splits of 35 pixels over the 2x2 tile
	if max-min > 7 {
		t.Errorf("channel counts too uneven: min %d max %d", min, max)
	}
}

func TestMissingFieldErrors(t *testing.T) {
	_, err := camera.New(
		camera.Device{Manufacturer: "Apple"},
		camera.Image{Shape: [2]int{4, 4}, RawExtension: ".dng", BitDepth: 12},
		camera.Settings{ISOMin: 23, ISOMax: 1840, ExposureMax: 0.5},
	)
	if err == nil {
		t.Fatal("expected an error for a camera without a device name")
	}
	mf, ok := err.(camera.ErrMissingField)
	if !ok {
		t.Fatalf("expected ErrMissingField, got %T: %v", err, err)
	}
	if mf.Section != "device" || mf.Field != "name" {
		t.Errorf("expected device.name to be reported missing, got %s.%s", mf.Section, mf.Field)
	}
}

func TestEqualityIsByValue(t *testing.T) {
	a := testCamera(t)
	b := testCamera(t)
	if !a.Equal(b) {
		t.Error("cameras built from identical records should be equal")
	}
	c := testCamera(t)
	c2, err := camera.New(c.Device, c.Image, camera.Settings{ISOMin: 50, ISOMax: 1840, ExposureMin: c.Settings.ExposureMin, ExposureMax: c.Settings.ExposureMax})
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(c2) {
		t.Error("cameras with different settings should not be equal")
	}
}

func TestLoadMetadataFile(t *testing.T) {
	body := `{
	"device": {"manufacturer": "Apple", "name": "iPhone SE"},
	"image": {"shape": [6, 8], "raw_extension": ".dng", "bias": 528,
	          "bayer_pattern": [[0, 1], [3, 2]], "bit_depth": 12},
	"settings": {"iso_min": 23, "iso_max": 1840,
	             "exposure_min": 0.00001, "exposure_max": 0.5}
}`
	path := filepath.Join(t.TempDir(), "info.json")
	if err := os.WriteFile(path, []byte(body), 0666); err != nil {
		t.Fatal(err)
	}
	cam, err := camera.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cam.String() != "Apple iPhone SE" {
		t.Errorf("unexpected camera identity %q", cam)
	}
	if cam.Image.Bias != 528 || cam.Settings.ISOMin != 23 {
		t.Errorf("metadata fields did not survive loading: %+v", cam)
	}
	if cam.Image.Gain != 0 {
		t.Errorf("gain should default to 0 when absent, got %g", cam.Image.Gain)
	}
}

func TestLoadMetadataMissingField(t *testing.T) {
	body := `{
	"device": {"manufacturer": "Apple", "name": "iPhone SE"},
	"image": {"shape": [6, 8], "raw_extension": ".dng",
	          "bayer_pattern": [[0, 1], [3, 2]], "bit_depth": 12},
	"settings": {"iso_min": 23, "iso_max": 1840,
	             "exposure_min": 0.00001, "exposure_max": 0.5}
}`
	path := filepath.Join(t.TempDir(), "info.json")
	if err := os.WriteFile(path, []byte(body), 0666); err != nil {
		t.Fatal(err)
	}
	_, err := camera.Load(path)
	mf, ok := err.(camera.ErrMissingField)
	if !ok {
		t.Fatalf("expected ErrMissingField, got %T: %v", err, err)
	}
	if mf.Section != "image" || mf.Field != "bias" {
		t.Errorf("expected image.bias to be reported missing, got %s.%s", mf.Section, mf.Field)
	}
}
