// Package indexset describes sets of positions within a shared flat array.
//
// An IndexSet is either a contiguous range or an explicit ascending list of
// indices. It is a cheap value type: members of a model tree hold IndexSet
// descriptors of the store slots they occupy, and any number of members may
// hold equal descriptors without owning the slots themselves.
package indexset

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Kind discriminates the two representations of an IndexSet.
type Kind int

const (
	// KindRange marks a contiguous [start, start+len) range.
	KindRange Kind = iota

	// KindExplicit marks an explicit ascending list of indices.
	KindExplicit
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindRange:
		return "Range"
	case KindExplicit:
		return "Explicit"
	default:
		return "Unknown"
	}
}

// IndexSet is an immutable description of positions in a shared array.
//
// The zero value is the null set (a zero-length range at 0), which denotes
// "owns no positions". Null is distinct from an absent descriptor: callers
// that need "unallocated" use a nil *IndexSet.
type IndexSet struct {
	kind   Kind
	start  int
	length int
	elems  []int // explicit form only; strictly ascending, non-negative
}

// Null returns the zero-length IndexSet.
func Null() IndexSet {
	return IndexSet{kind: KindRange}
}

// NewRange returns a contiguous IndexSet covering [start, start+length).
// start and length must be non-negative; a zero length yields the null set.
func NewRange(start, length int) (IndexSet, error) {
	if start < 0 || length < 0 {
		return IndexSet{}, fmt.Errorf("%w: Range(%d, %d)", ErrNegativeIndex, start, length)
	}
	if length == 0 {
		return Null(), nil
	}
	return IndexSet{kind: KindRange, start: start, length: length}, nil
}

// NewExplicit returns an IndexSet holding the given indices, which must be
// strictly ascending and non-negative. The slice is copied.
func NewExplicit(elems []int) (IndexSet, error) {
	if len(elems) == 0 {
		return Null(), nil
	}
	prev := -1
	for _, e := range elems {
		if e < 0 {
			return IndexSet{}, fmt.Errorf("%w: %d", ErrNegativeIndex, e)
		}
		if e <= prev {
			return IndexSet{}, fmt.Errorf("%w: %d after %d", ErrUnsorted, e, prev)
		}
		prev = e
	}
	return IndexSet{kind: KindExplicit, elems: slices.Clone(elems)}, nil
}

// FromSortedArray builds the most compact IndexSet holding elems: a Range
// when the values are contiguous, an Explicit set otherwise. Requirements on
// elems are the same as for NewExplicit.
func FromSortedArray(elems []int) (IndexSet, error) {
	if len(elems) == 0 {
		return Null(), nil
	}
	if elems[len(elems)-1]-elems[0] == len(elems)-1 {
		// Contiguous; NewRange validates non-negativity, NewExplicit ordering
		// is implied by the span check only when elements are unique, so check
		// ordering first for the degenerate unsorted-but-matching-span case.
		for i := 1; i < len(elems); i++ {
			if elems[i] != elems[i-1]+1 {
				return NewExplicit(elems)
			}
		}
		return NewRange(elems[0], len(elems))
	}
	return NewExplicit(elems)
}

// Kind returns the representation of the set.
func (s IndexSet) Kind() Kind { return s.kind }

// Len returns the number of positions in the set.
func (s IndexSet) Len() int {
	if s.kind == KindRange {
		return s.length
	}
	return len(s.elems)
}

// IsNull reports whether the set holds no positions.
func (s IndexSet) IsNull() bool { return s.Len() == 0 }

// Start returns the first position of a range set. It is only meaningful for
// KindRange; for explicit sets use AsSortedArray.
func (s IndexSet) Start() int { return s.start }

// At returns the i-th position in ascending order.
func (s IndexSet) At(i int) int {
	if s.kind == KindRange {
		return s.start + i
	}
	return s.elems[i]
}

// Max returns the largest position in the set, or -1 for the null set.
func (s IndexSet) Max() int {
	n := s.Len()
	if n == 0 {
		return -1
	}
	return s.At(n - 1)
}

// AsSortedArray materializes the set as an ascending slice of indices.
// The result is empty (nil) for the null set and is always a fresh slice.
func (s IndexSet) AsSortedArray() []int {
	n := s.Len()
	if n == 0 {
		return nil
	}
	if s.kind == KindRange {
		out := make([]int, n)
		for i := range out {
			out[i] = s.start + i
		}
		return out
	}
	return slices.Clone(s.elems)
}

// ContainsIndex reports whether position j lies in the set.
func (s IndexSet) ContainsIndex(j int) bool {
	if s.kind == KindRange {
		return j >= s.start && j < s.start+s.length
	}
	_, ok := slices.BinarySearch(s.elems, j)
	return ok
}

// Contains reports whether every position of other lies in s.
func (s IndexSet) Contains(other IndexSet) bool {
	for i, n := 0, other.Len(); i < n; i++ {
		if !s.ContainsIndex(other.At(i)) {
			return false
		}
	}
	return true
}

// Shift translates every position by delta. The null set shifts to itself.
// Shifting fails when any resulting position would be negative.
func (s IndexSet) Shift(delta int) (IndexSet, error) {
	if s.IsNull() {
		return Null(), nil
	}
	if s.kind == KindRange {
		return NewRange(s.start+delta, s.length)
	}
	out := make([]int, len(s.elems))
	for i, e := range s.elems {
		if e+delta < 0 {
			return IndexSet{}, fmt.Errorf("%w: %d%+d", ErrNegativeIndex, e, delta)
		}
		out[i] = e + delta
	}
	return IndexSet{kind: KindExplicit, elems: out}, nil
}

// Equal reports whether the two sets describe the same positions, regardless
// of representation.
func (s IndexSet) Equal(other IndexSet) bool {
	n := s.Len()
	if n != other.Len() {
		return false
	}
	for i := 0; i < n; i++ {
		if s.At(i) != other.At(i) {
			return false
		}
	}
	return true
}

// String renders the set for diagnostics.
func (s IndexSet) String() string {
	if s.IsNull() {
		return "Null"
	}
	if s.kind == KindRange {
		return fmt.Sprintf("Range(%d,%d)", s.start, s.length)
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range s.elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", e)
	}
	b.WriteByte(']')
	return b.String()
}

// Compose maps inner, which indexes the local space defined by outer, into
// the space outer itself indexes. For a range outer this is a shift by the
// range start; for an explicit outer it gathers outer's elements at inner's
// positions. A null inner composes to the null set.
func Compose(outer, inner IndexSet) (IndexSet, error) {
	if inner.IsNull() {
		return Null(), nil
	}
	if outer.kind == KindRange {
		return inner.Shift(outer.start)
	}
	out := make([]int, inner.Len())
	for i := range out {
		j := inner.At(i)
		if j < 0 || j >= len(outer.elems) {
			return IndexSet{}, fmt.Errorf("%w: local index %d outside outer set of %d", ErrOutOfRange, j, len(outer.elems))
		}
		out[i] = outer.elems[j]
	}
	return FromSortedArray(out)
}

// Decompose is the inverse of Compose: given a sibling known to occupy a
// subset of outer's positions, it returns the local indices i such that
// Compose(outer, i) equals sibling. The null sibling decomposes to the null
// set unconditionally. Decompose fails with ErrNotContained when sibling is
// not fully contained in outer.
func Decompose(outer, sibling IndexSet) (IndexSet, error) {
	if sibling.IsNull() {
		return Null(), nil
	}
	if outer.kind == KindRange {
		lo, hi := outer.start, outer.start+outer.length
		if first, last := sibling.At(0), sibling.Max(); first < lo || last >= hi {
			return IndexSet{}, fmt.Errorf("%w: %s not within %s", ErrNotContained, sibling, outer)
		}
		return sibling.Shift(-outer.start)
	}
	out := make([]int, sibling.Len())
	for i := range out {
		j := sibling.At(i)
		pos := sort.SearchInts(outer.elems, j)
		if pos >= len(outer.elems) || outer.elems[pos] != j {
			return IndexSet{}, fmt.Errorf("%w: index %d not in %s", ErrNotContained, j, outer)
		}
		out[i] = pos
	}
	return FromSortedArray(out)
}
