package gating

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Strategy owns a gate tree together with the transform and compensation
// registries the gates reference, and evaluates the whole tree against
// samples. Gates are evaluated in dependency order: a gate's input is always
// its parent's surviving events.
type Strategy struct {
	mu         sync.RWMutex
	tree       *gateTree
	transforms map[string]Transform
	matrices   map[string]CompMatrix
	cache      *preprocCache
}

// New initializes an empty gating strategy.
func New() *Strategy {
	return &Strategy{
		tree:       newGateTree(),
		transforms: map[string]Transform{},
		matrices:   map[string]CompMatrix{},
		cache:      newPreprocCache(),
	}
}

// GateID is one placement of a gate: its ID and the ancestor path it was
// inserted under.
type GateID struct {
	ID   string
	Path []string
}

// EvalOptions determine how Evaluate treats preprocessed event data.
// See the functional definitions below for the meaning.
type EvalOptions struct {
	CacheEvents bool
}

// EvalOption is a functional option for Evaluate.
type EvalOption func(*EvalOptions)

// CacheEvents retains the sample's preprocessed event data in the strategy's
// cache after Evaluate returns, so that re-evaluating the same sample skips
// the compensation and transform work. Retained data lives until ClearCache,
// or until the sample is re-evaluated without this option.
// Default: off; the cache is cleared for the sample when Evaluate returns.
func CacheEvents(b bool) EvalOption {
	return func(o *EvalOptions) {
		o.CacheEvents = b
	}
}

func applyEvalOptions(o *EvalOptions, opts ...EvalOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// AddGate validates the gate and inserts it under the given parent path.
// The path can be given as elements ("root", "Gate_A"), as a single
// "/"-delimited string, or omitted entirely to insert directly under root.
//
// The gate must implement exactly one of SimpleGate or QuadrantGate. The
// same gate definition may be added at several paths; each placement is
// tracked separately. A failed insertion leaves the strategy unchanged.
func (s *Strategy) AddGate(g Gate, gatePath ...string) error {
	if err := validateGate(g); err != nil {
		return err
	}
	path := normalizePath(gatePath)
	if path == nil {
		path = []string{RootID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.insert(g, path)
}

func validateGate(g Gate) error {
	if g == nil {
		return fmt.Errorf("%w: nil", ErrInvalidGate)
	}
	id := g.ID()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty gate ID", ErrInvalidGate)
	}
	if id == RootID {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidGate, RootID)
	}
	if strings.Contains(id, pathSeparator) {
		return fmt.Errorf("%w: gate ID %q contains %q", ErrInvalidGate, id, pathSeparator)
	}

	_, simple := g.(SimpleGate)
	quad, isQuad := g.(QuadrantGate)
	switch {
	case !simple && !isQuad:
		return fmt.Errorf("%w: %T implements neither SimpleGate nor QuadrantGate", ErrInvalidGate, g)
	case simple && isQuad:
		return fmt.Errorf("%w: %T implements both SimpleGate and QuadrantGate", ErrInvalidGate, g)
	}
	if isQuad {
		subs := quad.SubIDs()
		if len(subs) == 0 {
			return fmt.Errorf("%w: quadrant gate %q has no sub-gate IDs", ErrInvalidGate, id)
		}
		seen := map[string]bool{}
		for _, sub := range subs {
			if strings.TrimSpace(sub) == "" || strings.Contains(sub, pathSeparator) {
				return fmt.Errorf("%w: quadrant gate %q has invalid sub-gate ID %q", ErrInvalidGate, id, sub)
			}
			if seen[sub] {
				return fmt.Errorf("%w: quadrant gate %q repeats sub-gate ID %q", ErrInvalidGate, id, sub)
			}
			seen[sub] = true
		}
	}
	return nil
}

// AddTransform registers a transform under its ID for dimensions to
// reference. Registering the same ID twice fails.
func (s *Strategy) AddTransform(t Transform) error {
	if t == nil {
		return fmt.Errorf("%w: nil", ErrInvalidTransform)
	}
	if strings.TrimSpace(t.ID()) == "" {
		return fmt.Errorf("%w: empty transform ID", ErrInvalidTransform)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transforms[t.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTransform, t.ID())
	}
	s.transforms[t.ID()] = t
	return nil
}

// AddCompMatrix registers a compensation matrix under its ID for dimensions
// to reference. Registering the same ID twice fails.
func (s *Strategy) AddCompMatrix(m CompMatrix) error {
	if m == nil {
		return fmt.Errorf("%w: nil", ErrInvalidMatrix)
	}
	if strings.TrimSpace(m.ID()) == "" {
		return fmt.Errorf("%w: empty matrix ID", ErrInvalidMatrix)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matrices[m.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateMatrix, m.ID())
	}
	s.matrices[m.ID()] = m
	return nil
}

// GetGate returns the gate with the ID. While the ID occurs at a single
// path the path may be omitted; for a reused ID the full ancestor path is
// required and ID-only lookups fail with ErrAmbiguousGate.
func (s *Strategy) GetGate(id string, gatePath ...string) (Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.tree.lookup(id, lookupPath(gatePath))
	if err != nil {
		return nil, err
	}
	return n.gate, nil
}

// GetParentGate returns the parent of the gate with the ID, or nil when the
// gate sits directly under root.
func (s *Strategy) GetParentGate(id string, gatePath ...string) (Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.tree.parentOf(id, lookupPath(gatePath))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return p.gate, nil
}

// GetChildGates returns the gates directly under the placement (id, path),
// in insertion order.
func (s *Strategy) GetChildGates(id string, gatePath ...string) ([]Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	children, err := s.tree.childrenOf(id, lookupPath(gatePath))
	if err != nil {
		return nil, err
	}
	gates := make([]Gate, len(children))
	for i, c := range children {
		gates[i] = c.gate
	}
	return gates, nil
}

// GetGateIDs lists every gate placement in depth-first preorder: parents
// before children, siblings in insertion order.
func (s *Strategy) GetGateIDs() []GateID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []GateID
	for n := range s.tree.all() {
		ids = append(ids, GateID{ID: n.id, Path: n.path})
	}
	return ids
}

// GetMaxDepth returns the deepest gate level in the tree, with root at 0.
func (s *Strategy) GetMaxDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.maxDepth()
}

// ClearCache drops all retained preprocessed event data, for every sample.
// Idempotent.
func (s *Strategy) ClearCache() {
	s.cache.clearAll()
}

// lookupPath converts variadic path arguments to the tree's lookup form:
// absent means nil (unambiguous ID-only lookup).
func lookupPath(gatePath []string) []string {
	if len(gatePath) == 0 {
		return nil
	}
	return normalizePath(gatePath)
}

// Evaluate runs every gate in the tree against the sample and returns a new
// immutable Results report. Gates run in dependency order; each gate's
// candidate events are its parent's survivors (all events for gates directly
// under root).
//
// Unless CacheEvents is set, the sample's preprocessed event data is evicted
// from the cache when Evaluate returns, whether or not evaluation succeeded.
//
// Structural problems (unknown transform or matrix references, a failing
// predicate) abort the evaluation: a missing ancestor would make every
// descendant's numbers meaningless, so no partial Results are ever returned.
// A parent with zero surviving events does not abort; the affected gates are
// recorded with their relative percent undefined.
func (s *Strategy) Evaluate(smp Sample, opts ...EvalOption) (*Results, error) {
	if smp == nil {
		return nil, fmt.Errorf("gating: Evaluate called with nil sample")
	}

	var o EvalOptions
	applyEvalOptions(&o, opts...)

	if !o.CacheEvents {
		defer s.cache.clear(smp.ID())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := smp.EventCount()

	// Surviving full-length masks and counts per placement, keyed by the
	// node's full path. Filled strictly in dependency order.
	masks := map[string][]bool{}
	counts := map[string]int{}
	var records []*rawRecord

	for n := range s.tree.all() {
		parentMask, parentCount := s.parentPopulation(n, masks, counts, total)

		cols, err := s.preprocessGate(smp, n.gate, parentMask)
		if err != nil {
			return nil, fmt.Errorf("evaluating gate %q at %q: %w", n.id, pathKey(n.path), err)
		}

		key := pathKey(n.fullPath())
		switch g := n.gate.(type) {
		case QuadrantGate:
			subMasks, err := g.Apply(cols)
			if err != nil {
				return nil, fmt.Errorf("evaluating gate %q at %q: %w", n.id, pathKey(n.path), err)
			}
			for _, subID := range g.SubIDs() {
				full := expandMask(subMasks[subID], parentMask, total)
				rec := newRawRecord(smp.ID(), subID, n, full, total, parentCount)
				rec.quadParent = n.id
				records = append(records, rec)
			}
			// The quadrants partition the candidate set, so the
			// gate as a whole survives exactly its candidates.
			masks[key] = parentMask
			counts[key] = parentCount

		case SimpleGate:
			mask, err := g.Apply(cols)
			if err != nil {
				return nil, fmt.Errorf("evaluating gate %q at %q: %w", n.id, pathKey(n.path), err)
			}
			full := expandMask(mask, parentMask, total)
			records = append(records, newRawRecord(smp.ID(), n.id, n, full, total, parentCount))
			masks[key] = full
			counts[key] = countTrue(full)

		default:
			// AddGate rejects such gates; reaching here means the
			// tree invariant was broken after registration.
			return nil, fmt.Errorf("%w: gate %q is neither simple nor quadrant", errInternal, n.id)
		}
	}

	return newResults(records, smp.ID()), nil
}

// parentPopulation resolves a node's candidate set. A nil mask stands for
// the full sample (parent is root).
func (s *Strategy) parentPopulation(n *treeNode, masks map[string][]bool, counts map[string]int, total int) ([]bool, int) {
	if n.parent == s.tree.root {
		return nil, total
	}
	key := pathKey(n.path)
	return masks[key], counts[key]
}

// preprocessGate assembles the gate's per-dimension columns, restricted to
// the candidate events.
func (s *Strategy) preprocessGate(smp Sample, g Gate, parentMask []bool) ([][]float64, error) {
	dims := g.Dimensions()
	cols := make([][]float64, len(dims))
	for i, d := range dims {
		full, err := s.preprocessed(smp, d)
		if err != nil {
			return nil, err
		}
		cols[i] = restrict(full, parentMask)
	}
	return cols, nil
}

// preprocessed produces the full-length preprocessed column for one
// dimension, consulting the cache so that gates sharing a (compensation,
// transform, channel) triple never recompute it. Compensation is applied
// before the transform; range bounds are left to the gate.
func (s *Strategy) preprocessed(smp Sample, d Dimension) ([]float64, error) {
	idx, err := smp.ChannelIndex(d.Channel)
	if err != nil {
		return nil, err
	}

	var raw []float64
	if d.Compensation != "" {
		m, ok := s.matrices[d.Compensation]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMatrix, d.Compensation)
		}
		comp, err := s.cache.getOrCompute(smp.ID(), preprocKey{comp: d.Compensation, dim: matrixDim}, func() ([][]float64, error) {
			return m.Apply(smp)
		})
		if err != nil {
			return nil, err
		}
		raw = comp[idx]
	} else {
		raw = smp.Column(idx)
	}

	if d.Transform == "" {
		return raw, nil
	}
	x, ok := s.transforms[d.Transform]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, d.Transform)
	}
	entry, err := s.cache.getOrCompute(smp.ID(), preprocKey{comp: d.Compensation, xform: d.Transform, dim: idx}, func() ([][]float64, error) {
		return [][]float64{x.Apply(raw)}, nil
	})
	if err != nil {
		return nil, err
	}
	return entry[0], nil
}

// restrict returns the column values at the mask's true rows. A nil mask
// selects every row; the column is returned as-is.
func restrict(col []float64, mask []bool) []float64 {
	if mask == nil {
		return col
	}
	out := make([]float64, 0, countTrue(mask))
	for i, in := range mask {
		if in {
			out = append(out, col[i])
		}
	}
	return out
}

// expandMask re-expands a candidate-aligned membership vector to the full
// sample length, false outside the candidate set. A nil parent mask means
// the candidates were the full sample.
func expandMask(mask, parentMask []bool, total int) []bool {
	full := make([]bool, total)
	if parentMask == nil {
		copy(full, mask)
		return full
	}
	j := 0
	for i, in := range parentMask {
		if in {
			if j < len(mask) && mask[j] {
				full[i] = true
			}
			j++
		}
	}
	return full
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

// gateTypeName derives the report's gate type tag from the concrete gate
// type, e.g. *gates.Rectangle -> "rectangle".
func gateTypeName(g Gate) string {
	name := fmt.Sprintf("%T", g)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// String returns a table of all gate placements, in evaluation order.
func (s *Strategy) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tw := table.NewWriter()
	tw.SetTitle("\nGATING STRATEGY\n")
	tw.AppendHeader(table.Row{"Gate", "Path", "Type", "Dimensions"})

	for n := range s.tree.all() {
		dims := n.gate.Dimensions()
		channels := make([]string, len(dims))
		for i, d := range dims {
			channels[i] = d.Channel
		}
		tw.AppendRow(table.Row{
			n.id,
			pathKey(n.path),
			gateTypeName(n.gate),
			strings.Join(channels, ", "),
		})
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

// Tree returns a tree representation of the gate hierarchy showing only
// gate IDs, with quadrant sub-gates in parentheses.
//
// Example output:
//
//	root
//	├── singlets
//	│   └── lymphocytes
//	└── debris
func (s *Strategy) Tree() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString(RootID)
	sb.WriteString("\n")
	buildTree(&sb, s.tree.root, "")
	return sb.String()
}

// buildTree recursively renders the hierarchy with box-drawing characters.
func buildTree(sb *strings.Builder, n *treeNode, prefix string) {
	for i, child := range n.children {
		isLast := i == len(n.children)-1
		var connector, childPrefix string
		if isLast {
			connector = "└── "
			childPrefix = "    "
		} else {
			connector = "├── "
			childPrefix = "│   "
		}

		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(child.id)
		if q, ok := child.gate.(QuadrantGate); ok {
			sb.WriteString(" (")
			sb.WriteString(strings.Join(q.SubIDs(), ", "))
			sb.WriteString(")")
		}
		sb.WriteString("\n")
		buildTree(sb, child, prefix+childPrefix)
	}
}
