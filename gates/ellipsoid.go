package gates

import (
	"fmt"

	"github.com/cytolib/gating"
	"github.com/cytolib/gating/internal/linalg"
)

// Ellipsoid selects events within a fixed Mahalanobis distance of a mean
// point: events e with (e-mean)' * cov⁻¹ * (e-mean) <= distanceSquare. The
// covariance matrix is inverted once at construction.
type Ellipsoid struct {
	id     string
	dims   []gating.Dimension
	mean   []float64
	inv    [][]float64
	distSq float64
}

// NewEllipsoid creates an ellipsoid gate. mean and the square covariance
// matrix must match the number of dimensions (two or more), and the
// covariance matrix must be invertible.
func NewEllipsoid(id string, dims []gating.Dimension, mean []float64, covariance [][]float64, distanceSquare float64) (*Ellipsoid, error) {
	n := len(dims)
	if n < 2 {
		return nil, fmt.Errorf("gates: ellipsoid %q needs at least 2 dimensions, got %d", id, n)
	}
	if len(mean) != n {
		return nil, fmt.Errorf("gates: ellipsoid %q: mean has %d values for %d dimensions", id, len(mean), n)
	}
	if len(covariance) != n {
		return nil, fmt.Errorf("gates: ellipsoid %q: covariance has %d rows for %d dimensions", id, len(covariance), n)
	}
	if distanceSquare <= 0 {
		return nil, fmt.Errorf("gates: ellipsoid %q: distance square must be positive, got %g", id, distanceSquare)
	}

	inv, err := linalg.Invert(covariance)
	if err != nil {
		return nil, fmt.Errorf("gates: ellipsoid %q: %w", id, err)
	}
	return &Ellipsoid{id: id, dims: dims, mean: mean, inv: inv, distSq: distanceSquare}, nil
}

// ID implements gating.Gate.
func (e *Ellipsoid) ID() string { return e.id }

// Dimensions implements gating.Gate.
func (e *Ellipsoid) Dimensions() []gating.Dimension { return e.dims }

// Apply implements gating.SimpleGate.
func (e *Ellipsoid) Apply(cols [][]float64) ([]bool, error) {
	if len(cols) != len(e.dims) {
		return nil, fmt.Errorf("gates: ellipsoid %q: %d columns for %d dimensions", e.id, len(cols), len(e.dims))
	}

	n := len(e.dims)
	diff := make([]float64, n)
	mask := make([]bool, len(cols[0]))
	for i := range mask {
		for j := 0; j < n; j++ {
			diff[j] = cols[j][i] - e.mean[j]
		}
		prod, err := linalg.MulVec(e.inv, diff)
		if err != nil {
			return nil, fmt.Errorf("gates: ellipsoid %q: %w", e.id, err)
		}
		var dist float64
		for j := 0; j < n; j++ {
			dist += diff[j] * prod[j]
		}
		mask[i] = dist <= e.distSq
	}
	return mask, nil
}
