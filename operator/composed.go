package operator

import (
	"github.com/goccy/go-json"

	"github.com/quantara/paramvec/member"
)

// Composed is a composite member aggregating an ordered list of factors. It
// owns no parameters of its own: its footprint is the union of its factors'.
// A factor may appear more than once; repeated occurrences share one set of
// parameters and are counted once.
type Composed struct {
	member.Base

	factors []member.Member
}

// NewComposed creates a composite over the given factors.
func NewComposed(factors ...member.Member) *Composed {
	c := &Composed{factors: factors}
	c.Init(c)
	return c
}

// Submembers returns the factors in order.
func (c *Composed) Submembers() []member.Member {
	return append([]member.Member(nil), c.factors...)
}

// Append adds factors. The caller must mark the composite dirty on its model
// (Model.MarkDirty) so the new parameters get allocated: appending changes
// the member's footprint, not just its values.
func (c *Composed) Append(factors ...member.Member) {
	c.factors = append(c.factors, factors...)
}

// uniqueFactors returns the factors with repeated occurrences dropped,
// preserving first-occurrence order.
func (c *Composed) uniqueFactors() []member.Member {
	seen := make(map[member.Member]bool, len(c.factors))
	out := make([]member.Member, 0, len(c.factors))
	for _, f := range c.factors {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// NumParams returns the total parameter count of the distinct factors.
func (c *Composed) NumParams() int {
	n := 0
	for _, f := range c.uniqueFactors() {
		n += f.NumParams()
	}
	return n
}

// LocalVector concatenates the distinct factors' local vectors in factor
// order.
func (c *Composed) LocalVector() []float64 {
	out := make([]float64, 0, c.NumParams())
	for _, f := range c.uniqueFactors() {
		out = append(out, f.LocalVector()...)
	}
	return out
}

// LoadLocalVector splits v among the distinct factors in factor order.
func (c *Composed) LoadLocalVector(v []float64) error {
	if len(v) != c.NumParams() {
		return &member.ErrLengthMismatch{Expected: c.NumParams(), Actual: len(v)}
	}
	off := 0
	for _, f := range c.uniqueFactors() {
		n := f.NumParams()
		if err := f.LoadLocalVector(v[off : off+n]); err != nil {
			return err
		}
		off += n
	}
	return nil
}

// SnapshotKind implements member.Snapshotter.
func (c *Composed) SnapshotKind() string { return "composed" }

// MarshalConfig implements member.Snapshotter. Composition carries no state
// beyond its children.
func (c *Composed) MarshalConfig() ([]byte, error) {
	return json.Marshal(struct{}{})
}
