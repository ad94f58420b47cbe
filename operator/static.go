package operator

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"

	"github.com/quantara/paramvec/member"
)

// Static is a leaf member with a fixed matrix and no parameters. After
// allocation it holds the null index descriptor: it occupies no store
// positions but still participates in the tree.
type Static struct {
	member.Base

	dim int
	mx  []float64
}

// NewStatic creates a dim x dim fixed operator from row-major values. The
// values become part of the member's persisted configuration, since they are
// not covered by any local vector.
func NewStatic(dim int, values []float64) (*Static, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("operator dimension must be positive, got %d", dim)
	}
	if len(values) != dim*dim {
		return nil, &member.ErrLengthMismatch{Expected: dim * dim, Actual: len(values)}
	}
	s := &Static{dim: dim, mx: slices.Clone(values)}
	s.Init(s)
	return s, nil
}

// Dim returns the matrix dimension.
func (s *Static) Dim() int { return s.dim }

// At returns the matrix entry at row i, column j.
func (s *Static) At(i, j int) float64 { return s.mx[i*s.dim+j] }

// Copy returns a deep copy carrying the index descriptor but no parent link.
func (s *Static) Copy() *Static {
	cp := &Static{dim: s.dim, mx: slices.Clone(s.mx)}
	cp.Base = s.CloneBase(cp)
	return cp
}

// SnapshotKind implements member.Snapshotter.
func (s *Static) SnapshotKind() string { return "static" }

// MarshalConfig implements member.Snapshotter.
func (s *Static) MarshalConfig() ([]byte, error) {
	return json.Marshal(staticConfig{Dim: s.dim, Matrix: s.mx})
}

type staticConfig struct {
	Dim    int       `json:"dim"`
	Matrix []float64 `json:"matrix"`
}
