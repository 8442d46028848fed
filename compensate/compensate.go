// Package compensate implements the gating.CompMatrix capability: spillover
// compensation (spectral unmixing) of detector channels.
package compensate

import (
	"fmt"
	"slices"

	"github.com/cytolib/gating"
	"github.com/cytolib/gating/internal/linalg"
)

// Matrix is a square spillover matrix: row f, column d holds the fraction
// of fluorochrome f's signal that spills into detector d. Applying the
// matrix multiplies the raw detector measurements by its inverse, removing
// the spillover.
type Matrix struct {
	id             string
	detectors      []string
	fluorochromes  []string
	spill, inverse [][]float64
}

// NewMatrix creates a compensation matrix. spill must be square with one
// row per fluorochrome and one column per detector; detectors names the
// sample channels the matrix applies to, in column order. fluorochromes is
// informational and may be nil. The inverse is computed here, so a singular
// spillover matrix fails immediately.
func NewMatrix(id string, spill [][]float64, detectors, fluorochromes []string) (*Matrix, error) {
	n := len(detectors)
	if n == 0 {
		return nil, fmt.Errorf("compensate: matrix %q has no detectors", id)
	}
	if len(spill) != n {
		return nil, fmt.Errorf("compensate: matrix %q: %d spill rows for %d detectors", id, len(spill), n)
	}
	if fluorochromes != nil && len(fluorochromes) != n {
		return nil, fmt.Errorf("compensate: matrix %q: %d fluorochromes for %d detectors", id, len(fluorochromes), n)
	}

	inv, err := linalg.Invert(spill)
	if err != nil {
		return nil, fmt.Errorf("compensate: matrix %q: %w", id, err)
	}

	cp := make([][]float64, n)
	for i, row := range spill {
		cp[i] = slices.Clone(row)
	}
	return &Matrix{
		id:            id,
		detectors:     slices.Clone(detectors),
		fluorochromes: slices.Clone(fluorochromes),
		spill:         cp,
		inverse:       inv,
	}, nil
}

// ID implements gating.CompMatrix.
func (m *Matrix) ID() string {
	return m.id
}

// Detectors lists the detector channel names, in matrix column order.
func (m *Matrix) Detectors() []string {
	return slices.Clone(m.detectors)
}

// Fluorochromes lists the fluorochrome labels, or nil if none were given.
func (m *Matrix) Fluorochromes() []string {
	return slices.Clone(m.fluorochromes)
}

// Apply implements gating.CompMatrix. It returns a column-major event
// matrix aligned to s.Channels(): detector columns are unmixed through the
// inverse spillover matrix, every other column is the raw sample column.
func (m *Matrix) Apply(s gating.Sample) ([][]float64, error) {
	idx := make([]int, len(m.detectors))
	for i, det := range m.detectors {
		j, err := s.ChannelIndex(det)
		if err != nil {
			return nil, fmt.Errorf("compensate: matrix %q: %w", m.id, err)
		}
		idx[i] = j
	}

	events := s.EventCount()
	out := make([][]float64, len(s.Channels()))
	for c := range out {
		out[c] = s.Column(c)
	}
	comp := make([][]float64, len(m.detectors))
	for i := range comp {
		comp[i] = make([]float64, events)
	}

	// compensated[e] = observed[e] * inverse, over detector columns.
	n := len(m.detectors)
	for e := 0; e < events; e++ {
		for d := 0; d < n; d++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += out[idx[k]][e] * m.inverse[k][d]
			}
			comp[d][e] = sum
		}
	}
	for i, j := range idx {
		out[j] = comp[i]
	}
	return out, nil
}
