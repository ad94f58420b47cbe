package paramvec

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/quantara/paramvec/member"
)

// Model is the root container of a parameter tree: an ordered registry of
// top-level members plus the flat store their parameters occupy.
//
// A Model is not safe for concurrent use. All reconciliation is lazy: the
// store is rebuilt and cleaned on the next NumParams, ToVector or FromVector
// after a mutation.
type Model struct {
	labels   []string
	members  map[string]member.Member
	paramvec []float64

	needRebuild bool
	dirty       bool

	opts options
}

// New creates an empty Model.
func New(optFns ...Option) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{
		members: make(map[string]member.Member),
		opts:    opts,
	}
}

// Register adds a top-level member under label. Registration order is the
// traversal order for deterministic allocation. The member's parameters are
// allocated lazily on the next reconciliation.
func (m *Model) Register(label string, mm member.Member) error {
	if _, ok := m.members[label]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	m.labels = append(m.labels, label)
	m.members[label] = mm
	m.needRebuild = true
	return nil
}

// Deregister removes the member under label. Its parent link is dropped once
// no other registered tree references it, and its store positions are
// reclaimed on the next rebuild.
func (m *Model) Deregister(label string) error {
	mm, ok := m.members[label]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	delete(m.members, label)
	m.labels = slices.DeleteFunc(m.labels, func(l string) bool { return l == label })
	mm.UnlinkParent()
	m.needRebuild = true
	return nil
}

// Member returns the member registered under label.
func (m *Model) Member(label string) (member.Member, bool) {
	mm, ok := m.members[label]
	return mm, ok
}

// Labels returns the registered labels in registration order.
func (m *Model) Labels() []string {
	return slices.Clone(m.labels)
}

// each iterates registered members in registration order.
func (m *Model) each(fn func(label string, mm member.Member) error) error {
	for _, label := range m.labels {
		if err := fn(label, m.members[label]); err != nil {
			return err
		}
	}
	return nil
}

// NumParams returns the length of the parameter vector after reconciliation.
func (m *Model) NumParams() (int, error) {
	if err := m.clean(); err != nil {
		return 0, translateError(err)
	}
	return len(m.paramvec), nil
}

// ToVector returns a copy of the reconciled parameter vector. Its length
// always equals NumParams.
func (m *Model) ToVector() ([]float64, error) {
	start := time.Now()
	err := m.clean()
	m.opts.metrics.RecordToVector(time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}
	return slices.Clone(m.paramvec), nil
}

// FromVector is the inverse of ToVector: it assigns the store and pushes the
// corresponding slice into every member. v must have the post-reconciliation
// store length; FromVector(ToVector()) is idempotent.
func (m *Model) FromVector(v []float64) error {
	start := time.Now()
	err := m.fromVector(v)
	m.opts.metrics.RecordFromVector(time.Since(start), err)
	m.opts.logger.LogFromVector(len(v), err)
	return err
}

func (m *Model) fromVector(v []float64) error {
	np, err := m.NumParams()
	if err != nil {
		return err
	}
	if len(v) != np {
		return &ErrLengthMismatch{Expected: np, Actual: len(v)}
	}

	m.paramvec = slices.Clone(v)
	memo := make(map[member.Member]bool)
	err = m.each(func(label string, mm member.Member) error {
		return translateError(m.pushStore(mm, memo))
	})
	if err != nil {
		return err
	}
	m.dirty = false

	if m.opts.checks {
		return m.checkParamvec()
	}
	return nil
}

// MarkDirty records that origin's parameter footprint may have changed, not
// just its values. Every registered tree that references origin has its
// descriptors cleared so its slots are freshly resolved on the next rebuild.
// This is conservative invalidation, not precise dependency tracking.
func (m *Model) MarkDirty(origin member.Member) {
	m.needRebuild = true
	for _, label := range m.labels {
		mm := m.members[label]
		if mm.ObjRefcount(origin) > 0 {
			mm.ClearIndices()
		}
	}
	// Cleared members may hold parent == nil and so cannot propagate their
	// dirty flags up; set the model flag directly.
	m.dirty = true
}

// FlagDirty implements member.Parent: a member whose values changed flags
// the model for a clean pass.
func (m *Model) FlagDirty() { m.dirty = true }

// ObjRefcount implements member.Parent: the number of references to target
// across all registered trees.
func (m *Model) ObjRefcount(target member.Member) int {
	cnt := 0
	for _, label := range m.labels {
		cnt += m.members[label].ObjRefcount(target)
	}
	return cnt
}

// storeSlice gathers the store values at mm's positions. Unallocated members
// yield an empty slice; positions beyond the store length are stale.
func (m *Model) storeSlice(mm member.Member) ([]float64, error) {
	idx := mm.Indices()
	if idx == nil {
		return nil, nil
	}
	if idx.Max() >= len(m.paramvec) {
		return nil, fmt.Errorf("%w: %s against store of %d", ErrStaleIndices, idx, len(m.paramvec))
	}
	out := make([]float64, idx.Len())
	for i := range out {
		out[i] = m.paramvec[idx.At(i)]
	}
	return out, nil
}

// pushStore loads each leaf's store slice back into it and clears the dirty
// flags on the way up. Values are pushed at the leaves only: a leaf's
// descriptor lists its positions in local-vector order, whereas a composite's
// descriptor is the sorted union of its children's, which need not match the
// child-order concatenation its LoadLocalVector expects.
func (m *Model) pushStore(mm member.Member, memo map[member.Member]bool) error {
	if memo[mm] {
		return nil
	}
	memo[mm] = true

	subs := mm.Submembers()
	if len(subs) == 0 {
		if mm.Indices() != nil {
			w, err := m.storeSlice(mm)
			if err != nil {
				return err
			}
			if err := mm.LoadLocalVector(w); err != nil {
				return err
			}
		}
		mm.ClearDirty()
		return nil
	}
	for _, sub := range subs {
		if err := m.pushStore(sub, memo); err != nil {
			return err
		}
	}
	mm.ClearDirty()
	return nil
}

// scatter writes w into the store at mm's positions.
func (m *Model) scatter(mm member.Member, w []float64) error {
	idx := mm.Indices()
	if idx == nil {
		return nil
	}
	if idx.Len() != len(w) {
		return &ErrLengthMismatch{Expected: idx.Len(), Actual: len(w)}
	}
	if idx.Max() >= len(m.paramvec) {
		return fmt.Errorf("%w: %s against store of %d", ErrStaleIndices, idx, len(m.paramvec))
	}
	for i, val := range w {
		m.paramvec[idx.At(i)] = val
	}
	return nil
}

// clean reconciles allocation and then values: a rebuild when descriptors
// may be stale, then a children-first sync of dirty members into the store,
// then a push-back of the store into every member so lazily derived state is
// exact.
func (m *Model) clean() error {
	if m.needRebuild {
		if err := m.rebuild(); err != nil {
			return err
		}
		m.needRebuild = false
	}

	if m.dirty {
		start := time.Now()
		cleaned := 0
		err := m.each(func(label string, mm member.Member) error {
			return m.cleanMember(mm, &cleaned)
		})
		if err != nil {
			return err
		}

		// Re-push the store into every tree so members that derive state
		// lazily end up exactly consistent with the store.
		memo := make(map[member.Member]bool)
		err = m.each(func(label string, mm member.Member) error {
			return m.pushStore(mm, memo)
		})
		if err != nil {
			return err
		}
		m.dirty = false

		m.opts.metrics.RecordClean(cleaned, time.Since(start))
		m.opts.logger.LogClean(cleaned)
	}

	if m.opts.checks {
		return m.checkParamvec()
	}
	return nil
}

// cleanMember syncs a dirty member's local vector into the store, children
// before parents. The store is only written when the member's values differ
// beyond the clean tolerance (or are not finite, which always rewrites).
// Composites never write through their own descriptor: it is the sorted union
// of their children's positions, not a child-order mapping, so their values
// reach the store via the children alone.
func (m *Model) cleanMember(mm member.Member, cleaned *int) error {
	subs := mm.Submembers()
	for _, sub := range subs {
		if err := m.cleanMember(sub, cleaned); err != nil {
			return err
		}
	}
	if len(subs) > 0 {
		mm.ClearDirty()
		return nil
	}
	if !mm.Dirty() {
		return nil
	}

	w := mm.LocalVector()
	cur, err := m.storeSlice(mm)
	if err != nil {
		return err
	}
	if diverges(cur, w, m.opts.tol) {
		if err := m.scatter(mm, w); err != nil {
			return err
		}
		*cleaned++
	}
	mm.ClearDirty()
	return nil
}

// diverges reports whether two equal-length vectors differ beyond tol in
// Euclidean norm. Non-finite values always diverge.
func diverges(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return true
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	norm := math.Sqrt(sum)
	return !(norm <= tol) // catches NaN/Inf as well
}

// checkParamvec validates that every leaf's local vector matches the store
// slice it occupies and that no member is dirty while the model is clean.
func (m *Model) checkParamvec() error {
	return m.each(func(label string, mm member.Member) error {
		if mm.Parent() != member.Parent(m) {
			return fmt.Errorf("%w: %q", ErrParentMismatch, label)
		}
		if err := m.checkMember(label, mm); err != nil {
			return err
		}
		if !m.dirty && mm.Dirty() {
			return &ErrInconsistentState{Label: label, Reason: "member dirty but model clean"}
		}
		return nil
	})
}

// checkMember compares leaves against their store slices. Comparison happens
// at the leaves for the same reason pushStore loads there.
func (m *Model) checkMember(label string, mm member.Member) error {
	subs := mm.Submembers()
	if len(subs) > 0 {
		for _, sub := range subs {
			if err := m.checkMember(label, sub); err != nil {
				return err
			}
		}
		return nil
	}
	w := mm.LocalVector()
	if mm.Indices() == nil || len(w) == 0 {
		return nil
	}
	cur, err := m.storeSlice(mm)
	if err != nil {
		return err
	}
	if diverges(cur, w, m.opts.tol) {
		return &ErrInconsistentState{Label: label, Reason: "local vector differs from store slice"}
	}
	return nil
}

// RestoreVector sets the store verbatim without pushing values into members.
// For use when loading persisted state, where member local vectors and
// descriptors are restored separately.
func (m *Model) RestoreVector(v []float64) {
	m.paramvec = slices.Clone(v)
}

// RelinkMembers restores the parent back-references of every registered
// tree. Parent links are never persisted (they would create reference
// cycles), so loading reconstructs members bottom-up and then relinks
// top-down without re-deriving indices.
func (m *Model) RelinkMembers() error {
	return m.each(func(label string, mm member.Member) error {
		if err := mm.RelinkParent(m); err != nil {
			return fmt.Errorf("relink %q: %w", label, err)
		}
		return nil
	})
}
