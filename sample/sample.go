// Package sample provides an in-memory implementation of the gating.Sample
// capability. Parsing of acquisition file formats is deliberately out of
// scope; callers bring their own event table.
package sample

import (
	"fmt"
	"slices"
)

// InMemory is a gating.Sample over a row-major event table held in memory.
// It is immutable after construction and safe for concurrent reads.
type InMemory struct {
	id       string
	channels []string
	index    map[string]int
	cols     [][]float64
}

// NewInMemory creates a sample from row-major events: one row per event,
// one value per channel. Every row must have exactly one value per channel.
func NewInMemory(id string, channels []string, events [][]float64) (*InMemory, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("sample: %q has no channels", id)
	}
	index := make(map[string]int, len(channels))
	for i, ch := range channels {
		if _, ok := index[ch]; ok {
			return nil, fmt.Errorf("sample: %q has duplicate channel %q", id, ch)
		}
		index[ch] = i
	}

	cols := make([][]float64, len(channels))
	for i := range cols {
		cols[i] = make([]float64, len(events))
	}
	for r, row := range events {
		if len(row) != len(channels) {
			return nil, fmt.Errorf("sample: %q row %d has %d values for %d channels", id, r, len(row), len(channels))
		}
		for c, v := range row {
			cols[c][r] = v
		}
	}

	return &InMemory{
		id:       id,
		channels: slices.Clone(channels),
		index:    index,
		cols:     cols,
	}, nil
}

// ID implements gating.Sample.
func (s *InMemory) ID() string { return s.id }

// EventCount implements gating.Sample.
func (s *InMemory) EventCount() int {
	if len(s.cols) == 0 {
		return 0
	}
	return len(s.cols[0])
}

// Channels implements gating.Sample.
func (s *InMemory) Channels() []string {
	return slices.Clone(s.channels)
}

// ChannelIndex implements gating.Sample.
func (s *InMemory) ChannelIndex(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("sample: %q has no channel %q", s.id, name)
	}
	return i, nil
}

// Column implements gating.Sample. The returned slice is the sample's own
// storage; callers must not modify it.
func (s *InMemory) Column(i int) []float64 {
	return s.cols[i]
}
