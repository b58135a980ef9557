package calibrate

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/camlab/spectacle/frame"
	"github.com/camlab/spectacle/server"
)

// HTTPCalibrator wraps a Calibrator in an HTTP interface.  Frames travel as
// FITS bodies; scalars travel as JSON.
type HTTPCalibrator struct {
	c *Calibrator

	rt server.RouteTable
}

// NewHTTPCalibrator returns an HTTP wrapper with its route table populated.
func NewHTTPCalibrator(c *Calibrator) HTTPCalibrator {
	h := HTTPCalibrator{c: c, rt: server.RouteTable{}}
	h.rt[server.MethodPath{Method: http.MethodGet, Path: "/camera"}] = h.GetCamera
	h.rt[server.MethodPath{Method: http.MethodGet, Path: "/iso-factor"}] = h.GetISOFactor
	h.rt[server.MethodPath{Method: http.MethodPost, Path: "/correct/bias"}] = h.frameEndpoint(
		func(f frame.Frame, _ url.Values) (frame.Frame, error) {
			return h.c.CorrectBias(f)
		})
	h.rt[server.MethodPath{Method: http.MethodPost, Path: "/correct/dark"}] = h.frameEndpoint(
		func(f frame.Frame, q url.Values) (frame.Frame, error) {
			exp, err := parseFloatParam(q, "exposure")
			if err != nil {
				return frame.Frame{}, err
			}
			return h.c.CorrectDarkCurrent(f, exp)
		})
	h.rt[server.MethodPath{Method: http.MethodPost, Path: "/correct/flat"}] = h.frameEndpoint(
		func(f frame.Frame, _ url.Values) (frame.Frame, error) {
			return h.c.CorrectFlatField(f)
		})
	h.rt[server.MethodPath{Method: http.MethodPost, Path: "/correct/iso"}] = h.frameEndpoint(
		func(f frame.Frame, q url.Values) (frame.Frame, error) {
			iso, err := parseFloatParam(q, "iso")
			if err != nil {
				return frame.Frame{}, err
			}
			return h.c.NormaliseISO(f, iso)
		})
	h.rt[server.MethodPath{Method: http.MethodPost, Path: "/correct/electrons"}] = h.frameEndpoint(
		func(f frame.Frame, _ url.Values) (frame.Frame, error) {
			return h.c.ConvertToPhotoelectrons(f)
		})
	h.rt[server.MethodPath{Method: http.MethodPost, Path: "/correct/full"}] = h.frameEndpoint(
		func(f frame.Frame, q url.Values) (frame.Frame, error) {
			exp, err := parseFloatParam(q, "exposure")
			if err != nil {
				return frame.Frame{}, err
			}
			iso, err := parseFloatParam(q, "iso")
			if err != nil {
				return frame.Frame{}, err
			}
			return h.c.Correct(f, exp, iso)
		})
	return h
}

// RT satisfies server.HTTPer.
func (h HTTPCalibrator) RT() server.RouteTable {
	return h.rt
}

type paramError string

func (e paramError) Error() string { return string(e) }

func parseFloatParam(q url.Values, name string) (float64, error) {
	s := q.Get(name)
	if s == "" {
		return 0, paramError("missing required query parameter " + name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, paramError("query parameter " + name + " is not a number: " + s)
	}
	return v, nil
}

// frameEndpoint wraps a frame transform into a handler: the request body is a
// FITS image, the response a corrected FITS image.
func (h HTTPCalibrator) frameEndpoint(fcn func(frame.Frame, url.Values) (frame.Frame, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		f, err := frame.ReadFITS(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := fcn(f, r.URL.Query())
		if err != nil {
			status := http.StatusInternalServerError
			if _, ok := err.(paramError); ok {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/fits")
		w.WriteHeader(http.StatusOK)
		if err := frame.WriteFITS(w, out); err != nil {
			// headers are gone; nothing to do but log via the standard error path
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// GetCamera returns the camera metadata as JSON.
func (h HTTPCalibrator) GetCamera(w http.ResponseWriter, r *http.Request) {
	server.EncodeJSON(w, h.c.Camera())
}

// GetISOFactor returns the normalisation factor for ?iso= as {"f64": value}.
func (h HTTPCalibrator) GetISOFactor(w http.ResponseWriter, r *http.Request) {
	iso, err := parseFloatParam(r.URL.Query(), "iso")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	server.GetFloat(func() (float64, error) {
		t, err := h.c.store.LoadLookupTable(h.c.cam)
		if err != nil {
			return 0, err
		}
		return t.Factor(iso)
	})(w, r)
}
