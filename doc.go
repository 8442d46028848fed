// Package gating evaluates a hierarchy of event-selection gates over a
// tabular sample of channel measurements, producing a queryable report of
// per-gate counts and percentages.
//
// Gating itself does not define gate geometry, signal transforms or
// compensation; it consumes the Sample, Gate, Transform and CompMatrix
// interfaces and orchestrates their evaluation. The gates, transforms and
// compensate subpackages provide ready implementations.
//
// Typical use is as follows:
//
//  1. Create a Strategy
//  2. Register any compensation matrices and transforms the gates reference
//  3. Add gates, each under the path of its parent gate
//  4. Evaluate the strategy against a sample
//  5. Query the returned Results for counts, percentages and membership
//
// # Gate Identity and Paths
//
// A gate is addressed by its ID together with the path of ancestor gate IDs
// leading down from the sentinel "root". The same gate ID may legitimately
// appear at several paths (a reused definition in different branches); each
// placement is a distinct node with its own evaluated population. ID-only
// lookups work while the ID is unique; once a definition is reused, the full
// path is required and ID-only lookups fail with ErrAmbiguousGate.
//
// # Ownership and Concurrency
//
// A Strategy exclusively owns its gate tree. Gates, transforms and matrices
// must not be mutated after registration. Evaluate runs synchronously to
// completion. The preprocessing cache is keyed by sample ID so that future
// parallel-by-sample evaluation cannot interfere across samples; within one
// evaluation, sibling gates must not share mutable state beyond that
// read-only cache.
package gating
