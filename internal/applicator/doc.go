// Package applicator adds virtual (computed) field values to plain,
// behavior-free documents produced by a lean query path.
//
// # Overview
//
// A lean result is an untyped map[string]any tree (or a slice of them)
// with none of the computed fields a full document layer would have
// synthesized. Apply walks such a tree alongside its schema description
// and writes the requested virtuals back in place:
//
//  1. Slices fan out element by element; nil targets are a no-op.
//  2. Virtuals declared at the current level and selected by the filter
//     are evaluated in declaration order via the Invoker and written as
//     doc[name] = value. Order is observable: a later virtual's getters
//     may read an earlier virtual's value off the document.
//  3. Each embedded child path recurses with the filter projected onto
//     the child's field name. Absent or nil children are skipped.
//
// # Filtering
//
// The Filter is either the All sentinel or an explicit list of
// dot-delimited paths (Pick). Selection at a level is an exact match on
// the remaining single-segment entries; multi-segment entries are
// consumed one segment per recursion level. Entries that match nothing
// anywhere are ignored — a typo'd opt-in path never fails the call.
//
// # Failure
//
// The first getter error aborts the walk and propagates to the caller
// wrapped with the virtual's path. Virtuals written before the failure
// remain on the document; there is no rollback and no retry.
package applicator
