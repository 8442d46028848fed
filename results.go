package gating

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// rawRecord is the raw outcome of evaluating one gate placement (or one
// quadrant sub-population) against a sample.
type rawRecord struct {
	sample     string
	gateID     string
	path       []string // ancestor IDs, starting with RootID
	parent     string   // immediate parent gate ID, "" when root
	gateType   string
	quadParent string // quadrant gate ID for sub-population records, else ""
	count      int
	absPct     float64
	relPct     float64
	relOK      bool // false when the parent count was zero
	events     []bool
}

func newRawRecord(sample, gateID string, n *treeNode, events []bool, total, parentCount int) *rawRecord {
	rec := &rawRecord{
		sample:   sample,
		gateID:   gateID,
		path:     slices.Clone(n.path),
		gateType: gateTypeName(n.gate),
		count:    countTrue(events),
		events:   events,
	}
	if p := n.path[len(n.path)-1]; p != RootID {
		rec.parent = p
	}

	rec.absPct = math.NaN()
	if total > 0 {
		rec.absPct = 100 * float64(rec.count) / float64(total)
	}
	rec.relPct = math.NaN()
	if parentCount > 0 {
		rec.relPct = 100 * float64(rec.count) / float64(parentCount)
		rec.relOK = true
	}
	return rec
}

// ReportRow is one flattened, immutable line of a gating report. Quadrant
// gates contribute one row per sub-population, tagged with QuadrantParent.
type ReportRow struct {
	Sample          string
	GatePath        []string
	GateID          string
	GateType        string
	QuadrantParent  string // "" for non-quadrant rows
	Parent          string // "" for gates directly under root
	Count           int
	AbsolutePercent float64
	RelativePercent float64 // NaN when the parent count was zero
	Level           int     // length of GatePath; 1 for gates under root
}

// resultKey addresses one record by gate ID and ancestor path.
type resultKey struct {
	id   string
	path string
}

// Results is the immutable report for one sample produced by
// Strategy.Evaluate. Rows are sorted by (sample, level, gate ID) purely for
// readable presentation; the order carries no semantic meaning. All query
// methods answer from indices built once at construction, without
// re-running any computation.
type Results struct {
	sampleID string
	rows     []ReportRow
	records  map[resultKey]*rawRecord
	byID     map[string][]*rawRecord
	lut      map[string][][]string // gate ID -> paths at which it occurs
}

// newResults flattens the raw per-gate records into the sorted report and
// builds the lookup indices.
func newResults(records []*rawRecord, sampleID string) *Results {
	r := &Results{
		sampleID: sampleID,
		records:  map[resultKey]*rawRecord{},
		byID:     map[string][]*rawRecord{},
		lut:      map[string][][]string{},
	}

	for _, rec := range records {
		r.records[resultKey{id: rec.gateID, path: pathKey(rec.path)}] = rec
		r.byID[rec.gateID] = append(r.byID[rec.gateID], rec)
		r.lut[rec.gateID] = append(r.lut[rec.gateID], rec.path)
		r.rows = append(r.rows, ReportRow{
			Sample:          rec.sample,
			GatePath:        slices.Clone(rec.path),
			GateID:          rec.gateID,
			GateType:        rec.gateType,
			QuadrantParent:  rec.quadParent,
			Parent:          rec.parent,
			Count:           rec.count,
			AbsolutePercent: rec.absPct,
			RelativePercent: rec.relPct,
			Level:           len(rec.path),
		})
	}

	slices.SortStableFunc(r.rows, func(a, b ReportRow) int {
		if c := strings.Compare(a.Sample, b.Sample); c != 0 {
			return c
		}
		if a.Level != b.Level {
			return a.Level - b.Level
		}
		return strings.Compare(a.GateID, b.GateID)
	})
	return r
}

// SampleID identifies the sample this report was produced from.
func (r *Results) SampleID() string {
	return r.sampleID
}

// Report returns the sorted report rows. The returned slice is a copy; the
// report itself is never mutated after construction.
func (r *Results) Report() []ReportRow {
	return slices.Clone(r.rows)
}

// Membership returns the full-length boolean membership vector for the gate
// (true for events inside the gate, false elsewhere, including outside the
// parent's surviving set). While the gate ID occurs at a single path the
// path may be omitted; for a reused ID it is required, given either as path
// elements or as one "/"-delimited string. Quadrant sub-populations are
// addressed by their sub-gate ID.
func (r *Results) Membership(gateID string, gatePath ...string) ([]bool, error) {
	paths, ok := r.lut[gateID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGateNotFound, gateID)
	}

	var path []string
	switch {
	case len(paths) == 1:
		path = paths[0]
	case len(gatePath) == 0:
		return nil, fmt.Errorf("%w: %q is ambiguous, specify the full gate path", ErrAmbiguousGate, gateID)
	default:
		path = normalizePath(gatePath)
	}

	// A gate ID must belong to either plain records or the
	// sub-populations of a single quadrant gate. Anything else means the
	// tree construction invariants were violated upstream.
	quadParents := map[string]bool{}
	for _, rec := range r.byID[gateID] {
		quadParents[rec.quadParent] = true
	}
	if len(quadParents) > 1 {
		return nil, fmt.Errorf("%w: report as bug: gate %q appears to have multiple quadrant parents", errInternal, gateID)
	}

	rec, ok := r.records[resultKey{id: gateID, path: pathKey(path)}]
	if !ok {
		return nil, fmt.Errorf("%w: %q at %q", ErrGateNotFound, gateID, pathKey(path))
	}
	return slices.Clone(rec.events), nil
}

// single resolves an ID-only accessor. These accessors are intentionally
// narrower than Membership: they never take a path, so a reused gate ID is
// an error.
func (r *Results) single(gateID string) (*rawRecord, error) {
	recs, ok := r.byID[gateID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGateNotFound, gateID)
	}
	if len(recs) > 1 {
		return nil, fmt.Errorf("%w: %q occurs at multiple paths and path-qualified lookup is not supported for this accessor", ErrAmbiguousGate, gateID)
	}
	return recs[0], nil
}

// GateCount returns the event count for the gate ID.
func (r *Results) GateCount(gateID string) (int, error) {
	rec, err := r.single(gateID)
	if err != nil {
		return 0, err
	}
	return rec.count, nil
}

// GateAbsolutePercent returns the gate's event count as a percentage of the
// total sample events.
func (r *Results) GateAbsolutePercent(gateID string) (float64, error) {
	rec, err := r.single(gateID)
	if err != nil {
		return 0, err
	}
	return rec.absPct, nil
}

// GateRelativePercent returns the gate's event count as a percentage of its
// parent gate's count. When the parent had zero surviving events the value
// is undefined and ErrDivisionByZero is returned.
func (r *Results) GateRelativePercent(gateID string) (float64, error) {
	rec, err := r.single(gateID)
	if err != nil {
		return 0, err
	}
	if !rec.relOK {
		return 0, fmt.Errorf("%w: gate %q", ErrDivisionByZero, gateID)
	}
	return rec.relPct, nil
}

// String renders the report as a table, one row per gate result.
func (r *Results) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nGATING REPORT: %s\n", r.sampleID)
	tw.AppendHeader(table.Row{"Gate", "Path", "Type", "Quad\nParent", "Parent", "Count", "Abs %", "Rel %", "Level"})

	for _, row := range r.rows {
		tw.AppendRow(table.Row{
			row.GateID,
			pathKey(row.GatePath),
			row.GateType,
			row.QuadrantParent,
			row.Parent,
			humanize.Comma(int64(row.Count)),
			percentString(row.AbsolutePercent),
			percentString(row.RelativePercent),
			row.Level,
		})
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func percentString(pct float64) string {
	if math.IsNaN(pct) {
		return "-"
	}
	return fmt.Sprintf("%.2f", pct)
}
