package operator

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"

	"github.com/quantara/paramvec/member"
)

// TP is a leaf member whose first matrix row is frozen to the unit row
// (1, 0, ..., 0); only the remaining dim*(dim-1) entries are parameters.
// Its parameter footprint is therefore smaller than its payload, which
// exercises the owned-count versus matrix-size distinction.
type TP struct {
	member.Base

	dim int
	mx  []float64
}

// NewTP creates a dim x dim first-row-frozen operator initialized to the
// identity.
func NewTP(dim int) (*TP, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("operator dimension must be positive, got %d", dim)
	}
	t := &TP{dim: dim, mx: identity(dim)}
	t.Init(t)
	return t, nil
}

// Dim returns the matrix dimension.
func (t *TP) Dim() int { return t.dim }

// NumParams returns dim*(dim-1): the first row is not parameterized.
func (t *TP) NumParams() int { return t.dim * (t.dim - 1) }

// LocalVector returns the row-major entries of rows 1..dim-1.
func (t *TP) LocalVector() []float64 {
	return slices.Clone(t.mx[t.dim:])
}

// LoadLocalVector replaces rows 1..dim-1 and marks the member dirty. The
// frozen first row is untouched.
func (t *TP) LoadLocalVector(v []float64) error {
	if len(v) != t.NumParams() {
		return &member.ErrLengthMismatch{Expected: t.NumParams(), Actual: len(v)}
	}
	copy(t.mx[t.dim:], v)
	t.MarkDirty()
	return nil
}

// At returns the matrix entry at row i, column j.
func (t *TP) At(i, j int) float64 { return t.mx[i*t.dim+j] }

// SetAt sets the matrix entry at row i, column j and marks the member dirty.
// Setting an entry of the frozen first row fails.
func (t *TP) SetAt(i, j int, val float64) error {
	if i == 0 {
		return fmt.Errorf("row 0 of a TP operator is frozen")
	}
	t.mx[i*t.dim+j] = val
	t.MarkDirty()
	return nil
}

// Copy returns a deep copy carrying the index descriptor but no parent link.
func (t *TP) Copy() *TP {
	cp := &TP{dim: t.dim, mx: slices.Clone(t.mx)}
	cp.Base = t.CloneBase(cp)
	return cp
}

// SnapshotKind implements member.Snapshotter.
func (t *TP) SnapshotKind() string { return "tp" }

// MarshalConfig implements member.Snapshotter.
func (t *TP) MarshalConfig() ([]byte, error) {
	return json.Marshal(dimConfig{Dim: t.dim})
}
