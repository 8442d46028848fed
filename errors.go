package gating

import "errors"

// Errors returned by Strategy and Results. All errors are wrapped with
// fmt.Errorf("%w: ...") so callers can test them with errors.Is.
//
// Registration-time errors (invalid capability, duplicate or orphan
// placement, duplicate registry IDs) are raised immediately and leave the
// Strategy unchanged. Evaluation-time errors (unknown references, predicate
// failures) abort the evaluation; no partial Results are returned. The one
// exception is ErrDivisionByZero, which is recorded per gate and surfaced by
// Results.GateRelativePercent instead of aborting.
var (
	// ErrInvalidGate reports a gate that cannot be registered: nil, an
	// empty or reserved ID, or a type that implements neither SimpleGate
	// nor QuadrantGate (or claims to be both).
	ErrInvalidGate = errors.New("invalid gate")

	// ErrInvalidTransform reports a nil transform or one with an empty ID.
	ErrInvalidTransform = errors.New("invalid transform")

	// ErrInvalidMatrix reports a nil compensation matrix or one with an
	// empty ID.
	ErrInvalidMatrix = errors.New("invalid compensation matrix")

	// ErrDuplicateGate reports an insertion whose (ID, path) pair is
	// already present in the tree.
	ErrDuplicateGate = errors.New("gate already exists at path")

	// ErrMissingParent reports an insertion under a path that does not
	// resolve to an existing gate.
	ErrMissingParent = errors.New("parent gate path does not exist")

	// ErrGateNotFound reports a lookup for an ID, or an (ID, path) pair,
	// that is not registered.
	ErrGateNotFound = errors.New("gate not found")

	// ErrAmbiguousGate reports an ID-only lookup of an ID that occurs at
	// more than one path.
	ErrAmbiguousGate = errors.New("gate ID is ambiguous")

	// ErrDuplicateTransform reports a transform ID registered twice.
	ErrDuplicateTransform = errors.New("transform ID already registered")

	// ErrDuplicateMatrix reports a matrix ID registered twice.
	ErrDuplicateMatrix = errors.New("compensation matrix ID already registered")

	// ErrUnknownTransform reports a dimension referencing a transform ID
	// that was never registered. Raised during evaluation and fatal to it.
	ErrUnknownTransform = errors.New("unknown transform reference")

	// ErrUnknownMatrix reports a dimension referencing a compensation
	// matrix ID that was never registered. Raised during evaluation and
	// fatal to it.
	ErrUnknownMatrix = errors.New("unknown compensation matrix reference")

	// ErrDivisionByZero reports that a gate's parent had zero surviving
	// events, leaving the gate's relative percent undefined.
	ErrDivisionByZero = errors.New("parent gate has zero events")

	// errInternal marks conditions that indicate a bug in the tree
	// construction invariants rather than a caller error.
	errInternal = errors.New("internal consistency error")
)
