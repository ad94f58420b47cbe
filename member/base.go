package member

import (
	"fmt"
	"slices"

	"github.com/quantara/paramvec/indexset"
)

// Base carries the allocation and linking state shared by every member kind.
//
// Concrete kinds embed Base by value and must call Init with a pointer to
// themselves before use; the tree-recursive operations dispatch through that
// self reference so they see the embedding type's Submembers, NumParams and
// LocalVector rather than Base's defaults.
type Base struct {
	self    Member
	indices *indexset.IndexSet
	parent  Parent
	dirty   bool
}

// Init wires the embedding member into Base. It must be called exactly once,
// from the concrete kind's constructor.
func (b *Base) Init(self Member) {
	b.self = self
}

// NumParams returns 0; leaves with parameters override it.
func (b *Base) NumParams() int { return 0 }

// LocalVector returns an empty vector; leaves with parameters override it.
func (b *Base) LocalVector() []float64 { return nil }

// LoadLocalVector accepts only the empty vector; leaves with parameters
// override it.
func (b *Base) LoadLocalVector(v []float64) error {
	if len(v) != 0 {
		return &ErrLengthMismatch{Expected: 0, Actual: len(v)}
	}
	return nil
}

// Submembers returns nil; composites override it.
func (b *Base) Submembers() []Member { return nil }

// Indices returns the member's descriptor, or nil when unallocated.
func (b *Base) Indices() *indexset.IndexSet { return b.indices }

// IndicesAsArray materializes the descriptor as an ascending slice.
func (b *Base) IndicesAsArray() []int {
	if b.indices == nil {
		return nil
	}
	return b.indices.AsSortedArray()
}

// Parent returns the container the descriptor refers into, or nil.
func (b *Base) Parent() Parent { return b.parent }

// Dirty reports whether local state may be out of sync with the store.
func (b *Base) Dirty() bool { return b.dirty }

// MarkDirty flags this member and propagates the flag to the parent.
func (b *Base) MarkDirty() {
	b.dirty = true
	if b.parent != nil {
		b.parent.FlagDirty()
	}
}

// ClearDirty resets the flag. It does not propagate.
func (b *Base) ClearDirty() { b.dirty = false }

// FlagDirty lets a member act as the Parent of nested members: a dirty child
// dirties this member, which propagates upward in turn.
func (b *Base) FlagDirty() { b.MarkDirty() }

// ObjRefcount counts occurrences of target in this member's tree.
func (b *Base) ObjRefcount(target Member) int {
	cnt := 0
	if b.self == target {
		cnt = 1
	}
	for _, sub := range b.self.Submembers() {
		cnt += sub.ObjRefcount(target)
	}
	return cnt
}

// ClearIndices drops the descriptors of the whole subtree, marking it for
// re-allocation on the next rebuild.
func (b *Base) ClearIndices() {
	for _, sub := range b.self.Submembers() {
		sub.ClearIndices()
	}
	b.indices = nil
}

// RestoreIndices sets the descriptor verbatim. Used when loading persisted
// state, where descriptors round-trip without re-derivation.
func (b *Base) RestoreIndices(idx *indexset.IndexSet) {
	b.setOnlyIndices(idx, b.parent)
}

// setOnlyIndices updates this member's descriptor and parent without touching
// submembers.
func (b *Base) setOnlyIndices(idx *indexset.IndexSet, parent Parent) {
	b.indices = idx
	b.parent = parent
}

// SetIndices resets the descriptor and parent. When the member already had a
// descriptor, each submember's descriptor, expressed relative to the old one,
// is recomposed relative to the new one by decomposing against
// the old and composing against the new. memo prevents a shared submember
// from being processed twice; the root caller may pass nil.
func (b *Base) SetIndices(idx *indexset.IndexSet, parent Parent, memo map[Member]bool) error {
	if memo == nil {
		memo = make(map[Member]bool)
	}
	if memo[b.self] {
		return nil
	}
	memo[b.self] = true

	if b.indices != nil {
		for _, sub := range b.self.Submembers() {
			if memo[sub] {
				continue
			}
			var newSub *indexset.IndexSet
			if subIdx := sub.Indices(); subIdx != nil && idx != nil {
				rel, err := indexset.Decompose(*b.indices, *subIdx)
				if err != nil {
					return fmt.Errorf("recompose submember indices: %w", err)
				}
				composed, err := indexset.Compose(*idx, rel)
				if err != nil {
					return fmt.Errorf("recompose submember indices: %w", err)
				}
				newSub = &composed
			}
			if err := sub.SetIndices(newSub, parent, memo); err != nil {
				return err
			}
		}
	}

	b.setOnlyIndices(idx, parent)
	return nil
}

// AllocateIndices assigns indices for this member.
//
// A composite allocates each submember at increasing offsets and then sets
// its own descriptor to the union of theirs; it owns nothing beyond what its
// submembers own. A leaf with no valid descriptor for parent takes a fresh
// contiguous range of NumParams positions; a leaf whose descriptor is already
// valid allocates nothing. The return value is the number of newly allocated
// parameters.
func (b *Base) AllocateIndices(start int, parent Parent) (int, error) {
	subs := b.self.Submembers()
	if len(subs) > 0 {
		totNew := 0
		var all []int
		for _, sub := range subs {
			n, err := sub.AllocateIndices(start, parent)
			if err != nil {
				return 0, err
			}
			start += n
			totNew += n
			all = append(all, sub.IndicesAsArray()...)
		}

		// Submembers may share positions; the union drops duplicates.
		slices.Sort(all)
		all = slices.Compact(all)
		union, err := indexset.FromSortedArray(all)
		if err != nil {
			return 0, err
		}
		b.setOnlyIndices(&union, parent)
		return totNew, nil
	}

	if b.indices == nil || b.parent != parent {
		np := b.self.NumParams()
		idx, err := indexset.NewRange(start, np)
		if err != nil {
			return 0, err
		}
		if err := b.self.SetIndices(&idx, parent, nil); err != nil {
			return 0, err
		}
		return np, nil
	}

	// Descriptor already valid for this parent; nothing new to allocate.
	return 0, nil
}

// RelinkParent restores the parent link after deserialization, children
// first. Relinking to the same parent twice is a no-op; relinking over a
// different live parent fails.
func (b *Base) RelinkParent(parent Parent) error {
	for _, sub := range b.self.Submembers() {
		if err := sub.RelinkParent(parent); err != nil {
			return err
		}
	}
	if b.parent == parent {
		return nil
	}
	if b.parent != nil {
		return ErrReparentConflict
	}
	b.parent = parent
	return nil
}

// UnlinkParent drops the parent link once no references to this member remain
// in the parent's trees, children first.
func (b *Base) UnlinkParent() {
	for _, sub := range b.self.Submembers() {
		sub.UnlinkParent()
	}
	if b.parent != nil && b.parent.ObjRefcount(b.self) == 0 {
		b.parent = nil
	}
}

// CloneBase returns a Base for a copy of this member: the descriptor is
// carried over verbatim (copies are cheap value descriptors) but the parent
// link is dropped, mirroring serialization semantics.
func (b *Base) CloneBase(self Member) Base {
	nb := Base{self: self, dirty: b.dirty}
	if b.indices != nil {
		idx := *b.indices
		nb.indices = &idx
	}
	return nb
}
