// Package member defines the tree nodes a model is built from.
//
// A Member owns some subset of its model's flat parameter vector, described
// by an IndexSet descriptor. Leaves own parameters directly; composites
// aggregate the footprint of their submembers. The Base type carries all of
// the allocation, dirty-tracking and parent-linking bookkeeping so concrete
// member kinds only implement their numeric state.
package member

import (
	"github.com/quantara/paramvec/indexset"
)

// Parent is the non-owning back-reference a member holds to its container,
// usually the owning model. It is a relation plus lookup, never ownership:
// the container owns members, members only point back.
type Parent interface {
	// ObjRefcount returns the number of references to target reachable from
	// the container's member trees.
	ObjRefcount(target Member) int

	// FlagDirty records that some member's local state may have diverged
	// from the shared parameter vector.
	FlagDirty()
}

// Member is a node in a model's parameter tree.
//
// Concrete kinds embed Base, call Init with themselves, and implement the
// numeric-state methods (NumParams, LocalVector, LoadLocalVector) plus
// Submembers for composites. Everything else is provided by Base.
type Member interface {
	// NumParams returns the number of independent parameters of this member,
	// including those of its submembers.
	NumParams() int

	// LocalVector returns the member's parameters as a fresh slice of length
	// NumParams.
	LocalVector() []float64

	// LoadLocalVector sets the member's parameters from v, whose length must
	// equal NumParams, and marks the member dirty.
	LoadLocalVector(v []float64) error

	// Submembers returns the members this one contains, in order. Leaves
	// return nil.
	Submembers() []Member

	// Indices returns the descriptor of the positions this member occupies
	// in its parent's parameter vector, or nil when unallocated.
	Indices() *indexset.IndexSet

	// IndicesAsArray materializes Indices as an ascending slice; empty when
	// unallocated or null.
	IndicesAsArray() []int

	// SetIndices resets the member's descriptor and parent, recomposing any
	// already-set submember descriptors relative to the new one. memo guards
	// against re-processing shared submembers; pass nil at the root call.
	SetIndices(idx *indexset.IndexSet, parent Parent, memo map[Member]bool) error

	// AllocateIndices assigns fresh indices starting at start for this member
	// and any unallocated submembers, and returns the number of newly
	// allocated parameters.
	AllocateIndices(start int, parent Parent) (int, error)

	// ClearIndices recursively drops the descriptors of this member and all
	// submembers, marking the subtree for re-allocation.
	ClearIndices()

	// RestoreIndices sets the descriptor verbatim without touching the
	// parent link or submembers. For deserialization only.
	RestoreIndices(idx *indexset.IndexSet)

	// Parent returns the container this member's indices refer into, or nil.
	Parent() Parent

	// RelinkParent restores the parent link after deserialization without
	// altering indices. The current parent must be absent.
	RelinkParent(parent Parent) error

	// UnlinkParent drops the parent link, but only once the parent reports
	// no remaining references to this member.
	UnlinkParent()

	// ObjRefcount returns how many times target occurs in this member's
	// tree, counting this member itself.
	ObjRefcount(target Member) int

	// Dirty reports whether local state may have diverged from the shared
	// parameter vector.
	Dirty() bool

	// MarkDirty sets the dirty flag and propagates it to the parent.
	MarkDirty()

	// ClearDirty resets the dirty flag without propagation.
	ClearDirty()
}

// ClearDirtyTree resets the dirty flag of m and every member below it,
// children before parents.
func ClearDirtyTree(m Member) {
	for _, sub := range m.Submembers() {
		ClearDirtyTree(sub)
	}
	m.ClearDirty()
}
