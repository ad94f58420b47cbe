package paramvec

import (
	"slices"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/quantara/paramvec/indexset"
	"github.com/quantara/paramvec/member"
)

// rebuild reconciles allocation: it compacts store positions no longer
// referenced by any member, shifts surviving descriptors down accordingly,
// and assigns fresh positions to members with no valid descriptor, walking
// the registry in registration order.
//
// The new store is built in a local buffer and swapped in only at the end,
// so a failed rebuild never exposes a partially compacted store. Descriptor
// updates happen in place; rebuild errors are fail-fast invariant violations
// after which the model must not be reused.
func (m *Model) rebuild() error {
	start := time.Now()
	removed, added, err := m.rebuildParamvec()
	m.opts.metrics.RecordRebuild(removed, added, time.Since(start), err)
	m.opts.logger.LogRebuild(removed, added, len(m.paramvec), err)
	return translateError(err)
}

func (m *Model) rebuildParamvec() (nRemoved, nAdded int, err error) {
	v := slices.Clone(m.paramvec)
	np := len(v)

	// Step 1: collect the positions currently referenced by members whose
	// descriptors are valid for this store. A descriptor held against a
	// different model is stale here; the member is reallocated below.
	used := roaring.New()
	_ = m.each(func(label string, mm member.Member) error {
		if mm.Indices() == nil || mm.Parent() != member.Parent(m) {
			return nil
		}
		for _, j := range mm.IndicesAsArray() {
			used.Add(uint32(j))
		}
		return nil
	})

	// Step 2: the complement of the used set within [0, len(store)) is dead
	// and gets compacted away.
	var removed []int
	if np > 0 {
		it := roaring.Flip(used, 0, uint64(np)).Iterator()
		for it.HasNext() {
			removed = append(removed, int(it.Next()))
		}
	}

	if len(removed) > 0 {
		v = deleteAt(v, removed)

		// Shift every surviving descriptor down by the number of removed
		// positions preceding it. sort.SearchInts is the bisect-left step
		// function: O(log R) per lookup.
		shiftOf := func(j int) int { return sort.SearchInts(removed, j) }

		memo := make(map[member.Member]bool)
		err = m.each(func(label string, mm member.Member) error {
			idx := mm.Indices()
			if idx == nil || mm.Parent() != member.Parent(m) || memo[mm] {
				return nil
			}
			var newIdx indexset.IndexSet
			if idx.Kind() == indexset.KindRange {
				newIdx, err = idx.Shift(-shiftOf(idx.Start()))
				if err != nil {
					return err
				}
			} else {
				old := idx.AsSortedArray()
				shifted := make([]int, len(old))
				for i, j := range old {
					shifted[i] = j - shiftOf(j)
				}
				newIdx, err = indexset.FromSortedArray(shifted)
				if err != nil {
					return err
				}
			}
			return mm.SetIndices(&newIdx, m, memo)
		})
		if err != nil {
			return 0, 0, err
		}
	}

	// Steps 3-4: walk members in registration order, shifting the already
	// allocated up past insertions made so far, allocating the rest at the
	// current offset, and extending the store under descriptors that outrun
	// it (restored state whose trailing values were never materialized).
	off := 0
	shift := 0
	memo := make(map[member.Member]bool)
	err = m.each(func(label string, mm member.Member) error {
		// Only descriptors valid for this store shift. A stale descriptor
		// held against another model must fall through to reallocation, not
		// get adopted at shifted positions that alias other members' slots.
		if shift > 0 && mm.Indices() != nil && mm.Parent() == member.Parent(m) {
			shifted, err := mm.Indices().Shift(shift)
			if err != nil {
				return err
			}
			if err := mm.SetIndices(&shifted, m, memo); err != nil {
				return err
			}
		}

		if mm.Indices() == nil || mm.Parent() != member.Parent(m) {
			numNew, err := mm.AllocateIndices(off, m)
			if err != nil {
				return err
			}
			if numNew > 0 {
				// The member may cover more than the fresh positions when it
				// shares already-allocated submembers; key values by global
				// index so only the fresh ones are inserted.
				byIndex := make(map[int]float64)
				indexedLocalValues(mm, byIndex)
				vals := make([]float64, numNew)
				for i := range vals {
					vals[i] = byIndex[off+i]
				}
				v = slices.Insert(v, off, vals...)
			}
			shift += numNew
			off += numNew
			nAdded += numNew
			return nil
		}

		inds := mm.IndicesAsArray()
		maxIdx := -1
		if len(inds) > 0 {
			maxIdx = inds[len(inds)-1]
		}
		if l := len(v); maxIdx >= l {
			byIndex := make(map[int]float64)
			indexedLocalValues(mm, byIndex)
			v = append(v, make([]float64, maxIdx+1-l)...)
			shift += maxIdx + 1 - l
			nAdded += maxIdx + 1 - l
			for _, i := range inds {
				if i >= l {
					v[i] = byIndex[i]
				}
			}
		}
		if maxIdx >= 0 {
			off = maxIdx + 1
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	m.paramvec = v
	return len(removed), nAdded, nil
}

// indexedLocalValues fills out with the member's parameter values keyed by
// the global positions they occupy. Leaves pair their ascending indices with
// their local vector; composites merge their leaves, so shared positions are
// written once per referencing leaf (last write wins, values agree when the
// tree is consistent).
func indexedLocalValues(mm member.Member, out map[int]float64) {
	subs := mm.Submembers()
	if len(subs) == 0 {
		inds := mm.IndicesAsArray()
		w := mm.LocalVector()
		for i, j := range inds {
			if i < len(w) {
				out[j] = w[i]
			}
		}
		return
	}
	for _, sub := range subs {
		indexedLocalValues(sub, out)
	}
}

// deleteAt removes the values at the given ascending positions.
func deleteAt(v []float64, positions []int) []float64 {
	out := v[:0]
	next := 0
	for i, val := range v {
		if next < len(positions) && positions[next] == i {
			next++
			continue
		}
		out = append(out, val)
	}
	return out
}
