package caldata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/camlab/spectacle/camera"
	"github.com/camlab/spectacle/isonorm"
	"github.com/camlab/spectacle/vignette"
)

// Filenames of the tabular (CSV) artifacts.
const (
	flatModelFile = "flatfield_parameters.csv"
	isoModelFile  = "iso_normalisation_model.csv"
	isoLookupFile = "iso_normalisation_lookup_table.csv"
)

// Tabular artifact kinds, used for error reporting only; the pixel-map kinds
// are in store.go.
const (
	FlatFieldModel Kind = iota + 100
	ISOModel
	ISOLookup
)

// tablePath returns the path of a tabular artifact.
func (s *Store) tablePath(cam *camera.Camera, name string) string {
	return filepath.Join(s.cameraDir(cam), name)
}

// openTable opens a CSV artifact, mapping a missing file to
// ErrCalibrationNotFound.
func (s *Store) openTable(cam *camera.Camera, name string, kind Kind) ([][]string, error) {
	f, err := os.Open(s.tablePath(cam, name))
	if os.IsNotExist(err) {
		return nil, ErrCalibrationNotFound{Camera: cam.String(), Kind: kind}
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// writeTable writes CSV records to an artifact file, overwriting.
func (s *Store) writeTable(cam *camera.Camera, name string, records [][]string) error {
	if err := os.MkdirAll(s.cameraDir(cam), 0777); err != nil {
		return err
	}
	f, err := os.Create(s.tablePath(cam, name))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SaveVignetteModel persists the fitted radial vignetting parameters and
// their uncertainties as a single-row CSV table.
func (s *Store) SaveVignetteModel(cam *camera.Camera, p vignette.Parameters) error {
	header := make([]string, 0, 2*vignette.NumCoefficients)
	row := make([]string, 0, 2*vignette.NumCoefficients)
	for i, k := range p.Coeffs {
		header = append(header, fmt.Sprintf("k%d", i))
		row = append(row, ftoa(k))
	}
	for i, e := range p.Errs {
		header = append(header, fmt.Sprintf("k%d_err", i))
		row = append(row, ftoa(e))
	}
	return s.writeTable(cam, flatModelFile, [][]string{header, row})
}

// LoadVignetteModel reads back the persisted vignetting parameters.  The
// covariance matrix is not persisted; only coefficients and their errors
// round-trip.
func (s *Store) LoadVignetteModel(cam *camera.Camera) (vignette.Parameters, error) {
	records, err := s.openTable(cam, flatModelFile, FlatFieldModel)
	if err != nil {
		return vignette.Parameters{}, err
	}
	if len(records) != 2 || len(records[1]) != 2*vignette.NumCoefficients {
		return vignette.Parameters{}, fmt.Errorf("malformed vignetting parameter table for camera %s", cam)
	}
	p := vignette.Parameters{}
	for i := 0; i < vignette.NumCoefficients; i++ {
		if p.Coeffs[i], err = strconv.ParseFloat(records[1][i], 64); err != nil {
			return vignette.Parameters{}, err
		}
		if p.Errs[i], err = strconv.ParseFloat(records[1][vignette.NumCoefficients+i], 64); err != nil {
			return vignette.Parameters{}, err
		}
	}
	return p, nil
}

// SaveISOModel persists a fitted ISO normalisation model: its type tag, ISO
// range, goodness of fit, and parameter/error pairs.
func (s *Store) SaveISOModel(cam *camera.Camera, m isonorm.Model) error {
	records := [][]string{
		{"model", m.Type.String()},
		{"iso_min", strconv.Itoa(m.ISOMin)},
		{"iso_max", strconv.Itoa(m.ISOMax)},
		{"r2", ftoa(m.R2)},
	}
	for i := range m.Params {
		records = append(records, []string{fmt.Sprintf("p%d", i), ftoa(m.Params[i]), ftoa(m.Errs[i])})
	}
	return s.writeTable(cam, isoModelFile, records)
}

// LoadISOModel reads back a persisted ISO normalisation model.
func (s *Store) LoadISOModel(cam *camera.Camera) (isonorm.Model, error) {
	records, err := s.openTable(cam, isoModelFile, ISOModel)
	if err != nil {
		return isonorm.Model{}, err
	}
	m := isonorm.Model{}
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		switch rec[0] {
		case "model":
			if m.Type, err = isonorm.ParseModelType(rec[1]); err != nil {
				return isonorm.Model{}, err
			}
		case "iso_min":
			if m.ISOMin, err = strconv.Atoi(rec[1]); err != nil {
				return isonorm.Model{}, err
			}
		case "iso_max":
			if m.ISOMax, err = strconv.Atoi(rec[1]); err != nil {
				return isonorm.Model{}, err
			}
		case "r2":
			if m.R2, err = strconv.ParseFloat(rec[1], 64); err != nil {
				return isonorm.Model{}, err
			}
		default:
			if len(rec) != 3 {
				return isonorm.Model{}, fmt.Errorf("malformed ISO model table row %v for camera %s", rec, cam)
			}
			p, err := strconv.ParseFloat(rec[1], 64)
			if err != nil {
				return isonorm.Model{}, err
			}
			e, err := strconv.ParseFloat(rec[2], 64)
			if err != nil {
				return isonorm.Model{}, err
			}
			m.Params = append(m.Params, p)
			m.Errs = append(m.Errs, e)
		}
	}
	return m, nil
}

// SaveLookupTable persists the dense ISO -> normalisation factor table.
func (s *Store) SaveLookupTable(cam *camera.Camera, t isonorm.LookupTable) error {
	records := make([][]string, 0, len(t)+1)
	records = append(records, []string{"iso", "normalisation"})
	for iso, factor := range t {
		records = append(records, []string{strconv.Itoa(iso), ftoa(factor)})
	}
	return s.writeTable(cam, isoLookupFile, records)
}

// LoadLookupTable reads back the persisted ISO lookup table.
func (s *Store) LoadLookupTable(cam *camera.Camera) (isonorm.LookupTable, error) {
	records, err := s.openTable(cam, isoLookupFile, ISOLookup)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("empty ISO lookup table for camera %s", cam)
	}
	t := make(isonorm.LookupTable, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 2 {
			return nil, fmt.Errorf("malformed ISO lookup table row %v for camera %s", rec, cam)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, err
		}
		t = append(t, v)
	}
	return t, nil
}
