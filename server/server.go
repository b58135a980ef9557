// Package server contains the shared HTTP plumbing for the calibration
// service: method+path route tables and the small JSON payload types used by
// the handlers.
package server

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi"
)

// MethodPath is an HTTP method and URL path pair, the key of a RouteTable.
type MethodPath struct {
	Method string
	Path   string
}

// RouteTable maps method+path to handlers.
type RouteTable map[MethodPath]http.HandlerFunc

// Endpoints lists the routes in the table, sorted, as "METHOD path" strings.
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for mp := range rt {
		routes = append(routes, mp.Method+" "+mp.Path)
	}
	sort.Strings(routes)
	return routes
}

// Bind attaches every route in the table to a chi router.
func (rt RouteTable) Bind(r chi.Router) {
	for mp, h := range rt {
		r.MethodFunc(mp.Method, mp.Path, h)
	}
}

// HTTPer is a type which exposes its functionality through a RouteTable.
type HTTPer interface {
	RT() RouteTable
}

// FloatT is a JSON payload of a single float, {"f64": value}
type FloatT struct {
	F64 float64 `json:"f64"`
}

// StrT is a JSON payload of a single string, {"str": value}
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a JSON payload of a single bool, {"bool": value}
type BoolT struct {
	Bool bool `json:"bool"`
}

// EncodeJSON writes v to w as JSON with the appropriate header, reporting
// encoding failures as 500s.
func EncodeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetFloat wraps a float-getting function and returns the response as
// {"f64": value}
func GetFloat(fcn func() (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		EncodeJSON(w, FloatT{F64: f})
	}
}
