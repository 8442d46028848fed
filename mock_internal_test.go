package gating

// Minimal capability implementations used by the internal tests. The
// external tests exercise the real gates, transforms and compensate
// subpackages; these exist so internal tests can poke at unexported state
// without an import cycle.

import "slices"

// mockSample is a column-major in-memory sample.
type mockSample struct {
	id       string
	channels []string
	cols     [][]float64
}

func newMockSample(id string, channels []string, cols [][]float64) *mockSample {
	return &mockSample{id: id, channels: channels, cols: cols}
}

func (s *mockSample) ID() string { return s.id }

func (s *mockSample) EventCount() int {
	if len(s.cols) == 0 {
		return 0
	}
	return len(s.cols[0])
}

func (s *mockSample) Channels() []string { return s.channels }

func (s *mockSample) ChannelIndex(name string) (int, error) {
	for i, ch := range s.channels {
		if ch == name {
			return i, nil
		}
	}
	return 0, errChannel{name}
}

func (s *mockSample) Column(i int) []float64 { return s.cols[i] }

type errChannel struct{ name string }

func (e errChannel) Error() string { return "no channel " + e.name }

// thresholdGate passes events whose first dimension value is >= min.
type thresholdGate struct {
	id   string
	dims []Dimension
	min  float64
}

func (g *thresholdGate) ID() string              { return g.id }
func (g *thresholdGate) Dimensions() []Dimension { return g.dims }

func (g *thresholdGate) Apply(cols [][]float64) ([]bool, error) {
	mask := make([]bool, len(cols[0]))
	for i, v := range cols[0] {
		mask[i] = v >= g.min
	}
	return mask, nil
}

// splitQuadrant partitions the first dimension at div into "lo" and "hi".
type splitQuadrant struct {
	id   string
	dims []Dimension
	div  float64
}

func (g *splitQuadrant) ID() string              { return g.id }
func (g *splitQuadrant) Dimensions() []Dimension { return g.dims }
func (g *splitQuadrant) SubIDs() []string        { return []string{g.id + "-lo", g.id + "-hi"} }

func (g *splitQuadrant) Apply(cols [][]float64) (map[string][]bool, error) {
	n := len(cols[0])
	lo := make([]bool, n)
	hi := make([]bool, n)
	for i, v := range cols[0] {
		if v < g.div {
			lo[i] = true
		} else {
			hi[i] = true
		}
	}
	return map[string][]bool{g.id + "-lo": lo, g.id + "-hi": hi}, nil
}

// bareGate implements Gate but neither SimpleGate nor QuadrantGate.
type bareGate struct{ id string }

func (g *bareGate) ID() string              { return g.id }
func (g *bareGate) Dimensions() []Dimension { return nil }

// countingTransform doubles values and counts Apply invocations, so tests
// can assert the at-most-once cache guarantee.
type countingTransform struct {
	id    string
	calls int
}

func (t *countingTransform) ID() string { return t.id }

func (t *countingTransform) Apply(col []float64) []float64 {
	t.calls++
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = 2 * v
	}
	return out
}

// countingMatrix passes columns through unchanged and counts Apply
// invocations.
type countingMatrix struct {
	id    string
	calls int
}

func (m *countingMatrix) ID() string { return m.id }

func (m *countingMatrix) Apply(s Sample) ([][]float64, error) {
	m.calls++
	out := make([][]float64, len(s.Channels()))
	for i := range out {
		out[i] = slices.Clone(s.Column(i))
	}
	return out, nil
}
