package isonorm

import (
	"fmt"
	"math"
)

// LookupTable maps integer ISO speed to normalisation factor by direct
// indexing: entry i is the factor at ISO i.  Tables run from 0 through the
// camera's maximum ISO.
type LookupTable []float64

// LookupTable evaluates the model at every integer ISO speed from 0 through
// ISOMax.  The entry at the minimum ISO speed is exactly 1 by model
// construction.
func (m Model) LookupTable() LookupTable {
	t := make(LookupTable, m.ISOMax+1)
	for iso := range t {
		t[iso] = m.Evaluate(float64(iso))
	}
	return t
}

// Factor returns the normalisation factor for an ISO speed, rounding to the
// nearest table entry.  Speeds outside the table are an error rather than an
// extrapolation.
func (t LookupTable) Factor(iso float64) (float64, error) {
	idx := int(math.Round(iso))
	if idx < 0 || idx >= len(t) {
		return 0, fmt.Errorf("ISO speed %g is outside the lookup table range [0, %d]", iso, len(t)-1)
	}
	return t[idx], nil
}
