package operator

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/quantara/paramvec/member"
)

// Embedded wraps a single member acting on a subspace of a nominally larger
// space. All parameters belong to the wrapped member. When the wrapped
// member is already allocated, perhaps because it is also registered on its
// own or inside another composite, Embedded inherits its index descriptor
// and allocates nothing new. That is the supported parameter-sharing
// mechanism: equal descriptors, not shared slots.
type Embedded struct {
	member.Base

	inner member.Member
	dim   int // dimension of the containing space
}

// NewEmbedded wraps inner inside a space of the given dimension.
func NewEmbedded(inner member.Member, dim int) (*Embedded, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	e := &Embedded{inner: inner, dim: dim}
	e.Init(e)
	return e, nil
}

// Dim returns the dimension of the containing space.
func (e *Embedded) Dim() int { return e.dim }

// Inner returns the wrapped member.
func (e *Embedded) Inner() member.Member { return e.inner }

// Submembers returns the wrapped member.
func (e *Embedded) Submembers() []member.Member { return []member.Member{e.inner} }

// NumParams returns the wrapped member's parameter count.
func (e *Embedded) NumParams() int { return e.inner.NumParams() }

// LocalVector returns the wrapped member's local vector.
func (e *Embedded) LocalVector() []float64 { return e.inner.LocalVector() }

// LoadLocalVector delegates to the wrapped member.
func (e *Embedded) LoadLocalVector(v []float64) error { return e.inner.LoadLocalVector(v) }

// SnapshotKind implements member.Snapshotter.
func (e *Embedded) SnapshotKind() string { return "embedded" }

// MarshalConfig implements member.Snapshotter.
func (e *Embedded) MarshalConfig() ([]byte, error) {
	return json.Marshal(dimConfig{Dim: e.dim})
}
