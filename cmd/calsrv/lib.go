package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/camlab/spectacle/caldata"
	"github.com/camlab/spectacle/calibrate"
	"github.com/camlab/spectacle/camera"
	"github.com/camlab/spectacle/server"
	"github.com/camlab/spectacle/server/middleware/locker"
)

// CameraSetup holds the args needed to serve one camera.
type CameraSetup struct {
	// Metadata is the path to the camera metadata JSON file
	Metadata string `yaml:"Metadata" koanf:"Metadata"`

	// Storage is the root folder of the calibration artifact store
	Storage string `yaml:"Storage" koanf:"Storage"`

	// Endpoint is the URL prefix the camera's routes are mounted on,
	// e.g. "/iphone-se"
	Endpoint string `yaml:"Endpoint" koanf:"Endpoint"`

	// FlatFieldLabel selects a labelled flat-field artifact; empty uses the
	// unlabelled one
	FlatFieldLabel string `yaml:"FlatFieldLabel" koanf:"FlatFieldLabel"`
}

// Config holds the initialization parameters for the calibration server.  It
// is to be populated by a yaml/unmarshal call.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr" koanf:"Addr"`

	// Cameras is the list of cameras to serve
	Cameras []CameraSetup `yaml:"Cameras" koanf:"Cameras"`
}

// sanitizeEndpoint normalizes "iphone-se" and "/iphone-se/" to "/iphone-se".
func sanitizeEndpoint(s string) string {
	s = strings.Trim(s, "/")
	return "/" + s
}

// BuildMux constructs a chi router with one submux per configured camera and
// a special route, /endpoints, which returns all routes as JSON.
func BuildMux(c Config) (chi.Router, error) {
	if len(c.Cameras) == 0 {
		return nil, errors.New("no cameras configured")
	}
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}

	for _, setup := range c.Cameras {
		cam, err := camera.Load(setup.Metadata)
		if err != nil {
			return nil, err
		}
		cal := calibrate.New(cam, caldata.New(setup.Storage))
		cal.SetFlatFieldLabel(setup.FlatFieldLabel)
		httper := calibrate.NewHTTPCalibrator(cal)

		// a lock per camera; operators lock the endpoints for the duration of
		// a calibration-generation run
		lock := locker.New()
		locker.Inject(httper, lock)

		endpoint := sanitizeEndpoint(setup.Endpoint)
		supergraph[endpoint] = httper.RT().Endpoints()

		r := chi.NewRouter()
		r.Use(lock.Check)
		httper.RT().Bind(r)
		root.Mount(endpoint, r)
	}

	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		server.EncodeJSON(w, supergraph)
	})
	return root, nil
}
