// internal/layout/errors.go
package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle is returned for handles that were never issued by the
	// arena, belong to another arena, or refer to a destroyed node.
	ErrInvalidHandle = errors.New("layout: invalid handle")
	// ErrCycleDetected rejects an attach that would make a node its own ancestor.
	ErrCycleDetected = errors.New("layout: attach would create a cycle")
	// ErrReentrantLayout is returned when a pass re-enters itself, usually from
	// inside a measure callback.
	ErrReentrantLayout = errors.New("layout: reentrant layout")
	// ErrMeasurementFailed wraps host measurement failures.
	ErrMeasurementFailed = errors.New("layout: measurement failed")
	ErrIndexOutOfRange   = errors.New("layout: child index out of range")
	ErrLimitExceeded     = errors.New("layout: tree exceeds configured limits")
)

// MeasurementError reports which node's measurer failed.
type MeasurementError struct {
	Handle Handle
	Err    error
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("layout: measuring %s: %v", e.Handle, e.Err)
}

func (e *MeasurementError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrMeasurementFailed.
func (e *MeasurementError) Is(target error) bool {
	return target == ErrMeasurementFailed
}
