// internal/boundary/codes.go

// Package boundary is the handle-based surface a foreign host drives the
// layout engine through. Every operation takes plain integers and floats and
// reports failure as a Code instead of an error value or a panic.
package boundary

import (
	"errors"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

// Code is the status of a boundary call.
type Code int32

const (
	CodeOK Code = iota
	CodeNullPointer
	CodeInvalidHandle
	CodeCycleDetected
	CodeReentrantLayout
	CodeMeasurementFailed
	CodeIndexOutOfRange
	CodeLimitExceeded
	CodeInvalidArgument
	CodeUnknownBuffer
	CodeInternal
)

var codeNames = [...]string{
	CodeOK:                "ok",
	CodeNullPointer:       "null pointer",
	CodeInvalidHandle:     "invalid handle",
	CodeCycleDetected:     "cycle detected",
	CodeReentrantLayout:   "reentrant layout",
	CodeMeasurementFailed: "measurement failed",
	CodeIndexOutOfRange:   "index out of range",
	CodeLimitExceeded:     "limit exceeded",
	CodeInvalidArgument:   "invalid argument",
	CodeUnknownBuffer:     "unknown buffer",
	CodeInternal:          "internal error",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "unknown"
}

// codeOf maps engine errors onto boundary codes.
func codeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, layout.ErrCycleDetected):
		return CodeCycleDetected
	case errors.Is(err, layout.ErrReentrantLayout):
		return CodeReentrantLayout
	case errors.Is(err, layout.ErrMeasurementFailed):
		return CodeMeasurementFailed
	case errors.Is(err, layout.ErrIndexOutOfRange):
		return CodeIndexOutOfRange
	case errors.Is(err, layout.ErrLimitExceeded):
		return CodeLimitExceeded
	case errors.Is(err, layout.ErrInvalidHandle):
		return CodeInvalidHandle
	case errors.Is(err, style.ErrUnknownProperty),
		errors.Is(err, style.ErrKindMismatch),
		errors.Is(err, style.ErrEnumOutOfRange),
		errors.Is(err, style.ErrNotFinite):
		return CodeInvalidArgument
	}
	return CodeInternal
}
