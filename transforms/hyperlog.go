package transforms

import (
	"fmt"
	"math"
)

// Hyperlog is the log-plus-linear scaling of Bagwell: the sum of an
// exponential and a linear term, making it defined and smooth through zero
// and negative values. Parameters follow the same convention as Logicle:
// t is the top-of-scale value, w the linearization width in decades, m the
// total display width in decades and a the additional negative decades.
//
// The scale is the inverse of
//
//	EH(y) = a*exp(b*y) + c*y - f               for y >= x1
//	EH(y) = -EH(2*x1 - y)                      for y <  x1
//
// with EH(x1) = 0 and EH(1) = t.
type Hyperlog struct {
	id          string
	t, w, m, a  float64
	x1          float64
	pa, b, c, f float64
}

// NewHyperlog creates a hyperlog transform. Requires t > 0, m > 0,
// 0 < w <= m/2 and a within [-w, m-2w].
func NewHyperlog(id string, t, w, m, a float64) (*Hyperlog, error) {
	switch {
	case t <= 0:
		return nil, fmt.Errorf("transforms: hyperlog %q: t must be positive, got %g", id, t)
	case m <= 0:
		return nil, fmt.Errorf("transforms: hyperlog %q: m must be positive, got %g", id, m)
	case w <= 0 || w > m/2:
		return nil, fmt.Errorf("transforms: hyperlog %q: w must be in (0, m/2], got %g", id, w)
	case a < -w || a > m-2*w:
		return nil, fmt.Errorf("transforms: hyperlog %q: a must be in [-w, m-2w], got %g", id, a)
	}

	b := (m + a) * ln10
	wn := w / (m + a)
	x2 := a / (m + a)
	x1 := x2 + wn
	x0 := x2 + 2*wn

	e0 := math.Exp(b * x0)
	ca := e0 / wn
	fa := math.Exp(b*x1) + ca*x1
	pa := t / (math.Exp(b) + ca - fa)

	return &Hyperlog{
		id: id, t: t, w: w, m: m, a: a,
		x1: x1,
		pa: pa,
		b:  b,
		c:  ca * pa,
		f:  fa * pa,
	}, nil
}

func (h *Hyperlog) ID() string { return h.id }

// eh evaluates EH(y), reflecting the negative region around x1.
func (h *Hyperlog) eh(y float64) float64 {
	if y < h.x1 {
		y = 2*h.x1 - y
		return -(h.pa*math.Exp(h.b*y) + h.c*y - h.f)
	}
	return h.pa*math.Exp(h.b*y) + h.c*y - h.f
}

// Apply implements gating.Transform.
func (h *Hyperlog) Apply(col []float64) []float64 {
	out := make([]float64, len(col))
	for i, x := range col {
		out[i] = h.scale(x)
	}
	return out
}

// scale maps one raw value to display units by inverting EH.
func (h *Hyperlog) scale(value float64) float64 {
	return solveMonotone(h.eh, value, -0.5, 1.5)
}

// Inverse maps a scaled value back to the raw range.
func (h *Hyperlog) Inverse(y float64) float64 {
	return h.eh(y)
}
