package operator

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"

	"github.com/quantara/paramvec/member"
)

// Dense is a leaf member whose square matrix is fully parameterized: every
// entry is an independent parameter.
type Dense struct {
	member.Base

	dim int
	mx  []float64 // row-major dim x dim
}

// NewDense creates a dim x dim fully parameterized operator initialized to
// the identity.
func NewDense(dim int) (*Dense, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("operator dimension must be positive, got %d", dim)
	}
	d := &Dense{dim: dim, mx: identity(dim)}
	d.Init(d)
	return d, nil
}

// NewDenseFromValues creates a dense operator from a row-major matrix of
// length dim*dim.
func NewDenseFromValues(dim int, values []float64) (*Dense, error) {
	d, err := NewDense(dim)
	if err != nil {
		return nil, err
	}
	if err := d.LoadLocalVector(values); err != nil {
		return nil, err
	}
	d.ClearDirty()
	return d, nil
}

// Dim returns the matrix dimension.
func (d *Dense) Dim() int { return d.dim }

// NumParams returns dim*dim: every matrix entry is a parameter.
func (d *Dense) NumParams() int { return d.dim * d.dim }

// LocalVector returns the row-major matrix entries.
func (d *Dense) LocalVector() []float64 { return slices.Clone(d.mx) }

// LoadLocalVector replaces the matrix entries and marks the member dirty.
func (d *Dense) LoadLocalVector(v []float64) error {
	if len(v) != len(d.mx) {
		return &member.ErrLengthMismatch{Expected: len(d.mx), Actual: len(v)}
	}
	copy(d.mx, v)
	d.MarkDirty()
	return nil
}

// At returns the matrix entry at row i, column j.
func (d *Dense) At(i, j int) float64 { return d.mx[i*d.dim+j] }

// SetAt sets the matrix entry at row i, column j and marks the member dirty.
func (d *Dense) SetAt(i, j int, val float64) {
	d.mx[i*d.dim+j] = val
	d.MarkDirty()
}

// Copy returns a deep copy carrying the index descriptor but no parent link.
func (d *Dense) Copy() *Dense {
	cp := &Dense{dim: d.dim, mx: slices.Clone(d.mx)}
	cp.Base = d.CloneBase(cp)
	return cp
}

// SnapshotKind implements member.Snapshotter.
func (d *Dense) SnapshotKind() string { return "dense" }

// MarshalConfig implements member.Snapshotter.
func (d *Dense) MarshalConfig() ([]byte, error) {
	return json.Marshal(dimConfig{Dim: d.dim})
}

// dimConfig is the persisted configuration shared by matrix-backed kinds.
type dimConfig struct {
	Dim int `json:"dim"`
}

func identity(dim int) []float64 {
	mx := make([]float64, dim*dim)
	for i := 0; i < dim; i++ {
		mx[i*dim+i] = 1
	}
	return mx
}
