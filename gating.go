package gating

import "math"

// Sample is the tabular event source a Strategy evaluates against. Each
// event is a row of numeric measurements, one per channel. Implementations
// must be safe for concurrent reads; the engine never writes to a sample.
//
// Parsing of acquisition files is out of scope for this module; the sample
// subpackage provides an in-memory implementation.
type Sample interface {
	// ID identifies the sample in results and in the preprocessing cache.
	ID() string

	// EventCount is the number of rows (events) in the sample.
	EventCount() int

	// Channels lists the channel names in column order.
	Channels() []string

	// ChannelIndex resolves a channel name to its column index.
	ChannelIndex(name string) (int, error)

	// Column returns the raw measurement column at index i, aligned to
	// the full event count. Callers must not modify the returned slice.
	Column(i int) []float64
}

// Transform is a deterministic, channel-scoped numeric remapping (for
// example a logicle or hyperlog scaling) applied before gating. Apply must
// be pure: the same input always produces the same output, so the result
// can be cached per sample.
type Transform interface {
	ID() string
	Apply(col []float64) []float64
}

// CompMatrix removes cross-channel signal spillover from raw measurements.
// Apply returns a column-major event matrix aligned to s.Channels(), with
// the matrix's detector columns compensated and all other columns passed
// through. The result is cached per sample under the matrix ID.
type CompMatrix interface {
	ID() string
	Apply(s Sample) ([][]float64, error)
}

// Gate is the common part of every gate definition: an identifier and the
// dimensions (channels plus optional preprocessing references and bounds)
// the gate reads. A usable gate additionally implements exactly one of
// SimpleGate or QuadrantGate; whether a gate is a quadrant gate is a
// property of its type, decided at definition time.
type Gate interface {
	ID() string
	Dimensions() []Dimension
}

// SimpleGate selects a single sub-population. Apply receives one column per
// declared dimension, restricted to the candidate events (the parent gate's
// survivors), and returns a membership vector aligned to those rows.
type SimpleGate interface {
	Gate
	Apply(cols [][]float64) ([]bool, error)
}

// QuadrantGate atomically partitions its input into named, mutually
// exclusive sub-populations. Apply returns one membership vector per sub-ID,
// each aligned to the candidate rows; for every candidate event exactly one
// sub-vector is true.
type QuadrantGate interface {
	Gate
	SubIDs() []string
	Apply(cols [][]float64) (map[string][]bool, error)
}

// A Dimension declares one input axis of a gate: the channel it reads,
// the compensation and transform to apply first (either may be empty), and
// optional range bounds. Bounds are interpreted by the gate itself (the
// rectangle gate tests against them); they never affect the cached
// preprocessed column.
type Dimension struct {
	// Channel is the name of the sample channel this dimension reads.
	Channel string

	// Compensation references a registered CompMatrix ID; empty means
	// uncompensated.
	Compensation string

	// Transform references a registered Transform ID; empty means
	// untransformed.
	Transform string

	// Min and Max bound the dimension. The zero bounds are -Inf/+Inf,
	// set by NewDimension.
	Min, Max float64
}

// DimensionOption configures a Dimension created with NewDimension.
type DimensionOption func(*Dimension)

// WithCompensation sets the compensation matrix reference.
func WithCompensation(ref string) DimensionOption {
	return func(d *Dimension) {
		d.Compensation = ref
	}
}

// WithTransform sets the transform reference.
func WithTransform(ref string) DimensionOption {
	return func(d *Dimension) {
		d.Transform = ref
	}
}

// WithRange bounds the dimension to [min, max].
func WithRange(min, max float64) DimensionOption {
	return func(d *Dimension) {
		d.Min = min
		d.Max = max
	}
}

// WithMin bounds the dimension below, leaving it unbounded above.
func WithMin(min float64) DimensionOption {
	return func(d *Dimension) {
		d.Min = min
	}
}

// WithMax bounds the dimension above, leaving it unbounded below.
func WithMax(max float64) DimensionOption {
	return func(d *Dimension) {
		d.Max = max
	}
}

// NewDimension creates a Dimension on the named channel. Without options the
// dimension is uncompensated, untransformed and unbounded.
func NewDimension(channel string, opts ...DimensionOption) Dimension {
	d := Dimension{
		Channel: channel,
		Min:     math.Inf(-1),
		Max:     math.Inf(1),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
