package member

import (
	"errors"
	"fmt"
)

// ErrReparentConflict is returned by RelinkParent when the member already
// belongs to a different live parent. It indicates a bookkeeping bug, not a
// transient condition.
var ErrReparentConflict = errors.New("cannot relink parent: parent already set")

// ErrLengthMismatch indicates a vector of the wrong length was passed to
// LoadLocalVector. The value is never silently truncated.
type ErrLengthMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("local vector length mismatch: expected %d, got %d", e.Expected, e.Actual)
}
