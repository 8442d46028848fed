// Package transforms implements the gating.Transform capability: the
// standard channel-scoped scalings applied to measurements before gating.
// Every transform maps the instrument's top-of-scale value T to 1.0, is
// strictly increasing, and exposes Inverse for round-tripping scaled values
// back to the raw range.
package transforms

import "math"

const ln10 = math.Ln10

// Linear scales x to (x + a) / (t + a).
type Linear struct {
	id   string
	t, a float64
}

// NewLinear creates a linear transform with top-of-scale t and bottom
// offset a.
func NewLinear(id string, t, a float64) *Linear {
	return &Linear{id: id, t: t, a: a}
}

func (l *Linear) ID() string { return l.id }

// Apply implements gating.Transform.
func (l *Linear) Apply(col []float64) []float64 {
	out := make([]float64, len(col))
	for i, x := range col {
		out[i] = (x + l.a) / (l.t + l.a)
	}
	return out
}

// Inverse maps a scaled value back to the raw range.
func (l *Linear) Inverse(y float64) float64 {
	return y*(l.t+l.a) - l.a
}

// Log scales x to log10(x/t)/m + 1, covering m decades below the
// top-of-scale t. Non-positive input maps to -Inf/NaN per IEEE semantics.
type Log struct {
	id   string
	t, m float64
}

// NewLog creates a log transform with top-of-scale t over m decades.
func NewLog(id string, t, m float64) *Log {
	return &Log{id: id, t: t, m: m}
}

func (l *Log) ID() string { return l.id }

// Apply implements gating.Transform.
func (l *Log) Apply(col []float64) []float64 {
	out := make([]float64, len(col))
	for i, x := range col {
		out[i] = math.Log10(x/l.t)/l.m + 1
	}
	return out
}

// Inverse maps a scaled value back to the raw range.
func (l *Log) Inverse(y float64) float64 {
	return l.t * math.Pow(10, l.m*(y-1))
}

// Asinh is the inverse hyperbolic sine scaling: near-linear around zero,
// logarithmic in the tails, defined for negative input. t is the
// top-of-scale value, m the number of positive decades, a the number of
// additional negative decades.
type Asinh struct {
	id      string
	t, m, a float64
}

// NewAsinh creates an inverse-hyperbolic-sine transform.
func NewAsinh(id string, t, m, a float64) *Asinh {
	return &Asinh{id: id, t: t, m: m, a: a}
}

func (s *Asinh) ID() string { return s.id }

// Apply implements gating.Transform.
func (s *Asinh) Apply(col []float64) []float64 {
	scale := math.Sinh(s.m*ln10) / s.t
	denom := (s.m + s.a) * ln10
	out := make([]float64, len(col))
	for i, x := range col {
		out[i] = (math.Asinh(x*scale) + s.a*ln10) / denom
	}
	return out
}

// Inverse maps a scaled value back to the raw range.
func (s *Asinh) Inverse(y float64) float64 {
	return math.Sinh(y*(s.m+s.a)*ln10-s.a*ln10) * s.t / math.Sinh(s.m*ln10)
}

// solveMonotone finds x with f(x) == target for a strictly increasing f,
// by expanding a bracket around [lo, hi] and bisecting. The transforms'
// scale functions are all smooth and monotone, so plain bisection converges
// to full float64 precision well within the iteration cap.
func solveMonotone(f func(float64) float64, target, lo, hi float64) float64 {
	for f(lo) > target {
		lo -= hi - lo
	}
	for f(hi) < target {
		hi += hi - lo
	}
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if mid == lo || mid == hi {
			break
		}
		if f(mid) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
