// Package gates implements the gating.SimpleGate and gating.QuadrantGate
// capabilities: the geometric membership predicates applied to preprocessed
// event data, plus a CEL-backed expression gate for predicates that are
// easier to write than to draw.
package gates

import (
	"fmt"

	"github.com/cytolib/gating"
)

// Rectangle selects events whose value on every dimension lies within that
// dimension's [Min, Max] bounds. With a single dimension it is a range
// gate; unbounded sides (the NewDimension defaults) act as half-open
// intervals.
type Rectangle struct {
	id   string
	dims []gating.Dimension
}

// NewRectangle creates a rectangle gate over the dimensions. The bounds
// live on the dimensions themselves, set with gating.WithRange.
func NewRectangle(id string, dims []gating.Dimension) *Rectangle {
	return &Rectangle{id: id, dims: dims}
}

// ID implements gating.Gate.
func (r *Rectangle) ID() string { return r.id }

// Dimensions implements gating.Gate.
func (r *Rectangle) Dimensions() []gating.Dimension { return r.dims }

// Apply implements gating.SimpleGate.
func (r *Rectangle) Apply(cols [][]float64) ([]bool, error) {
	if len(cols) != len(r.dims) {
		return nil, fmt.Errorf("gates: rectangle %q: %d columns for %d dimensions", r.id, len(cols), len(r.dims))
	}
	if len(r.dims) == 0 {
		return nil, fmt.Errorf("gates: rectangle %q has no dimensions", r.id)
	}

	mask := make([]bool, len(cols[0]))
	for i := range mask {
		in := true
		for j, d := range r.dims {
			v := cols[j][i]
			if v < d.Min || v > d.Max {
				in = false
				break
			}
		}
		mask[i] = in
	}
	return mask, nil
}
