package gates

import (
	"fmt"

	"github.com/cytolib/gating"
)

// QuadrantNames labels the four regions a Quadrant gate partitions its
// plane into, by the sign of each axis relative to its divider.
type QuadrantNames struct {
	// PP: x >= xDiv, y >= yDiv (upper right)
	PP string
	// NP: x < xDiv, y >= yDiv (upper left)
	NP string
	// NN: x < xDiv, y < yDiv (lower left)
	NN string
	// PN: x >= xDiv, y < yDiv (lower right)
	PN string
}

// Quadrant partitions two dimensions into four named, mutually exclusive
// regions around a divider point. One evaluation produces all four
// sub-populations atomically; every candidate event belongs to exactly one.
type Quadrant struct {
	id         string
	dims       []gating.Dimension
	xDiv, yDiv float64
	names      QuadrantNames
}

// NewQuadrant creates a quadrant gate over an x and a y dimension divided
// at (xDiv, yDiv). All four names are required and must be distinct.
func NewQuadrant(id string, xDim, yDim gating.Dimension, xDiv, yDiv float64, names QuadrantNames) (*Quadrant, error) {
	all := []string{names.PP, names.NP, names.NN, names.PN}
	seen := map[string]bool{}
	for _, name := range all {
		if name == "" {
			return nil, fmt.Errorf("gates: quadrant %q: all four sub-gate names are required", id)
		}
		if seen[name] {
			return nil, fmt.Errorf("gates: quadrant %q: duplicate sub-gate name %q", id, name)
		}
		seen[name] = true
	}
	return &Quadrant{
		id:    id,
		dims:  []gating.Dimension{xDim, yDim},
		xDiv:  xDiv,
		yDiv:  yDiv,
		names: names,
	}, nil
}

// ID implements gating.Gate.
func (q *Quadrant) ID() string { return q.id }

// Dimensions implements gating.Gate.
func (q *Quadrant) Dimensions() []gating.Dimension { return q.dims }

// SubIDs implements gating.QuadrantGate.
func (q *Quadrant) SubIDs() []string {
	return []string{q.names.PP, q.names.NP, q.names.NN, q.names.PN}
}

// Apply implements gating.QuadrantGate. Events on a divider belong to the
// positive side, so the four masks always partition the input.
func (q *Quadrant) Apply(cols [][]float64) (map[string][]bool, error) {
	if len(cols) != 2 {
		return nil, fmt.Errorf("gates: quadrant %q: %d columns for 2 dimensions", q.id, len(cols))
	}

	xs, ys := cols[0], cols[1]
	n := len(xs)
	masks := map[string][]bool{
		q.names.PP: make([]bool, n),
		q.names.NP: make([]bool, n),
		q.names.NN: make([]bool, n),
		q.names.PN: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		xPos := xs[i] >= q.xDiv
		yPos := ys[i] >= q.yDiv
		switch {
		case xPos && yPos:
			masks[q.names.PP][i] = true
		case !xPos && yPos:
			masks[q.names.NP][i] = true
		case !xPos && !yPos:
			masks[q.names.NN][i] = true
		default:
			masks[q.names.PN][i] = true
		}
	}
	return masks, nil
}
