package paramvec

import (
	"errors"
	"fmt"

	"github.com/quantara/paramvec/indexset"
	"github.com/quantara/paramvec/member"
)

var (
	// ErrStaleIndices indicates a member's descriptor references positions
	// beyond the store length outside of an in-progress rebuild. This is a
	// bookkeeping bug, unreachable when rebuild runs before every external
	// read; it is never recovered from.
	ErrStaleIndices = errors.New("stale indices: member references positions beyond store length")

	// ErrUnknownLabel is returned when a label is not in the registry.
	ErrUnknownLabel = errors.New("unknown member label")

	// ErrDuplicateLabel is returned when registering a label twice.
	ErrDuplicateLabel = errors.New("label already registered")

	// ErrParentMismatch indicates an allocated member whose parent link does
	// not point at the model whose store its indices refer into.
	ErrParentMismatch = errors.New("member parent is not this model")
)

// ErrLengthMismatch indicates a vector of the wrong length was passed to
// FromVector. No silent truncation is performed.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrLengthMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("vector length mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrLengthMismatch) Unwrap() error { return e.cause }

// ErrInconsistentState is returned by the consistency-check pass when a
// member's local vector disagrees with the store slice it occupies, or a
// member is dirty while the model believes itself clean.
type ErrInconsistentState struct {
	Label  string
	Reason string
}

func (e *ErrInconsistentState) Error() string {
	return fmt.Sprintf("member %q out of sync with parameter vector: %s", e.Label, e.Reason)
}

// translateError normalizes subpackage errors into this package's error
// kinds at the Model API boundary.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var lm *member.ErrLengthMismatch
	if errors.As(err, &lm) {
		return &ErrLengthMismatch{Expected: lm.Expected, Actual: lm.Actual, cause: err}
	}

	// Decompose failures during rebuild mean the allocation tree is
	// inconsistent; surface them as stale bookkeeping.
	if errors.Is(err, indexset.ErrNotContained) || errors.Is(err, indexset.ErrOutOfRange) {
		return fmt.Errorf("%w: %w", ErrStaleIndices, err)
	}

	return err
}
