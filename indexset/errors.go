package indexset

import "errors"

var (
	// ErrNegativeIndex indicates an operation would produce or accept a
	// negative position.
	ErrNegativeIndex = errors.New("negative index")

	// ErrUnsorted indicates explicit elements were not strictly ascending.
	ErrUnsorted = errors.New("explicit indices must be strictly ascending")

	// ErrNotContained is returned by Decompose when the sibling set is not
	// fully contained in the outer set. It indicates an inconsistency in the
	// allocation tree and is not recoverable.
	ErrNotContained = errors.New("sibling indices not contained in outer indices")

	// ErrOutOfRange is returned by Compose when an inner index falls outside
	// the local space defined by the outer set.
	ErrOutOfRange = errors.New("inner index out of range")
)
