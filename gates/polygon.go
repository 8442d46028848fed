package gates

import (
	"fmt"

	"github.com/cytolib/gating"
)

// Polygon selects events inside a closed polygon over exactly two
// dimensions. The vertex list is implicitly closed (last vertex connects
// back to the first); membership is decided by ray casting, with points on
// an edge counting as inside on one side only.
type Polygon struct {
	id       string
	dims     []gating.Dimension
	vertices [][2]float64
}

// NewPolygon creates a polygon gate. dims must have exactly two elements
// (x then y axis) and at least three vertices are required.
func NewPolygon(id string, dims []gating.Dimension, vertices [][2]float64) (*Polygon, error) {
	if len(dims) != 2 {
		return nil, fmt.Errorf("gates: polygon %q needs exactly 2 dimensions, got %d", id, len(dims))
	}
	if len(vertices) < 3 {
		return nil, fmt.Errorf("gates: polygon %q needs at least 3 vertices, got %d", id, len(vertices))
	}
	return &Polygon{id: id, dims: dims, vertices: vertices}, nil
}

// ID implements gating.Gate.
func (p *Polygon) ID() string { return p.id }

// Dimensions implements gating.Gate.
func (p *Polygon) Dimensions() []gating.Dimension { return p.dims }

// Apply implements gating.SimpleGate.
func (p *Polygon) Apply(cols [][]float64) ([]bool, error) {
	if len(cols) != 2 {
		return nil, fmt.Errorf("gates: polygon %q: %d columns for 2 dimensions", p.id, len(cols))
	}

	xs, ys := cols[0], cols[1]
	mask := make([]bool, len(xs))
	for i := range mask {
		mask[i] = p.contains(xs[i], ys[i])
	}
	return mask, nil
}

// contains runs the even-odd ray-casting test against the vertex list.
func (p *Polygon) contains(x, y float64) bool {
	inside := false
	n := len(p.vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := p.vertices[i][0], p.vertices[i][1]
		xj, yj := p.vertices[j][0], p.vertices[j][1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
