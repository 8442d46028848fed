package transforms

import (
	"fmt"
	"math"
)

// Logicle is the biexponential scaling of Parks, Roederer and Moore:
// near-linear around zero (width w decades), logarithmic above, with
// optional extra negative range. t is the top-of-scale value, w the
// linearization width in decades, m the total display width in decades and
// a the number of additional negative decades.
//
// The scale is the inverse of the biexponential
//
//	B(y) = a*exp(b*y) - c*exp(-d*y) - f        for y >= x1
//	B(y) = -B(2*x1 - y)                        for y <  x1
//
// whose parameters are derived once at construction so that B(x1) = 0 and
// B(1) = t: zero scales to x1 and top-of-scale to 1.0.
type Logicle struct {
	id         string
	t, w, m, a float64
	x1         float64
	p          biexpParams
}

type biexpParams struct {
	a, b, c, d, f float64
}

// NewLogicle creates a logicle transform. Requires t > 0, m > 0,
// 0 <= w <= m/2 and a within [-w, m-2w].
func NewLogicle(id string, t, w, m, a float64) (*Logicle, error) {
	switch {
	case t <= 0:
		return nil, fmt.Errorf("transforms: logicle %q: t must be positive, got %g", id, t)
	case m <= 0:
		return nil, fmt.Errorf("transforms: logicle %q: m must be positive, got %g", id, m)
	case w < 0 || w > m/2:
		return nil, fmt.Errorf("transforms: logicle %q: w must be in [0, m/2], got %g", id, w)
	case a < -w || a > m-2*w:
		return nil, fmt.Errorf("transforms: logicle %q: a must be in [-w, m-2w], got %g", id, a)
	}

	b := (m + a) * ln10
	wn := w / (m + a)
	x2 := a / (m + a)
	x1 := x2 + wn
	x0 := x2 + 2*wn

	// d solves 2*(ln(d) - ln(b)) + wn*(b + d) = 0 with 0 < d < b; the
	// left side is strictly increasing in d.
	d := b
	if wn > 0 {
		d = solveMonotone(func(d float64) float64 {
			return 2*(math.Log(d)-math.Log(b)) + wn*(b+d)
		}, 0, math.SmallestNonzeroFloat64, b)
	}

	ca := math.Exp(x0 * (b + d))
	fa := math.Exp(b*x1) - ca/math.Exp(d*x1)
	pa := t / (math.Exp(b) - fa - ca/math.Exp(d))

	return &Logicle{
		id: id, t: t, w: w, m: m, a: a,
		x1: x1,
		p: biexpParams{
			a: pa,
			b: b,
			c: ca * pa,
			d: d,
			f: fa * pa,
		},
	}, nil
}

func (l *Logicle) ID() string { return l.id }

// biexp evaluates B(y), reflecting the negative region around x1.
func (l *Logicle) biexp(y float64) float64 {
	if y < l.x1 {
		y = 2*l.x1 - y
		return -(l.p.a*math.Exp(l.p.b*y) - l.p.c*math.Exp(-l.p.d*y) - l.p.f)
	}
	return l.p.a*math.Exp(l.p.b*y) - l.p.c*math.Exp(-l.p.d*y) - l.p.f
}

// Apply implements gating.Transform.
func (l *Logicle) Apply(col []float64) []float64 {
	out := make([]float64, len(col))
	for i, x := range col {
		out[i] = l.scale(x)
	}
	return out
}

// scale maps one raw value to display units by inverting B.
func (l *Logicle) scale(value float64) float64 {
	return solveMonotone(l.biexp, value, -0.5, 1.5)
}

// Inverse maps a scaled value back to the raw range.
func (l *Logicle) Inverse(y float64) float64 {
	return l.biexp(y)
}
