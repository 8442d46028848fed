package gating

import "sync"

// matrixDim is the dimension index used for whole-matrix compensation
// entries, which are not tied to a single channel.
const matrixDim = -1

// preprocKey identifies one piece of preprocessed event data within a
// sample: the compensation reference (empty for none), the transform
// reference (empty for none) and the channel index the transform was applied
// to (matrixDim for the compensated whole-event matrix). Range bounds are
// never part of the key; gates apply bounds after preprocessing.
type preprocKey struct {
	comp  string
	xform string
	dim   int
}

// preprocCache memoizes preprocessed event data per sample. It is unbounded
// and caller-controlled: Evaluate clears a sample's entries when the caller
// did not opt into retention, and ClearCache drops everything.
type preprocCache struct {
	mu      sync.Mutex
	samples map[string]map[preprocKey][][]float64
}

func newPreprocCache() *preprocCache {
	return &preprocCache{samples: map[string]map[preprocKey][][]float64{}}
}

// getOrCompute returns the cached entry for (sampleID, key), invoking
// produce at most once per key within the cache's lifetime. The producer
// runs under the cache lock, which is what guarantees first-write-wins if
// sibling gates are ever evaluated concurrently: two racing first accesses
// cannot both compute.
func (c *preprocCache) getOrCompute(sampleID string, key preprocKey, produce func() ([][]float64, error)) ([][]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, ok := c.samples[sampleID]
	if !ok {
		entries = map[preprocKey][][]float64{}
		c.samples[sampleID] = entries
	}
	if data, ok := entries[key]; ok {
		return data, nil
	}

	data, err := produce()
	if err != nil {
		return nil, err
	}
	entries[key] = data
	return data, nil
}

// clear evicts all entries for one sample.
func (c *preprocCache) clear(sampleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.samples, sampleID)
}

// clearAll evicts everything. Idempotent.
func (c *preprocCache) clearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = map[string]map[preprocKey][][]float64{}
}

// keys lists the cached keys for a sample, in no particular order.
func (c *preprocCache) keys(sampleID string) []preprocKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.samples[sampleID]
	keys := make([]preprocKey, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	return keys
}

// size reports the number of samples with retained entries.
func (c *preprocCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}
