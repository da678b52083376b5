// Package xtask is the public API for the xtask distributed soft real-time
// kernel: per-core preemptive schedulers federated across tiles by a
// Communication Server and a ring bus. See SPEC_FULL.md for the full design.
package xtask

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is a high-level error category, mirroring the block-device runner's
// UblkErrorCode enum shape.
type ErrorCode string

const (
	ErrCodeInvalidHandle   ErrorCode = "invalid handle"
	ErrCodeInvalidCallNr   ErrorCode = "invalid kcall number"
	ErrCodeNotFound        ErrorCode = "not found"
	ErrCodeCapacity        ErrorCode = "capacity exhausted"
	ErrCodeNoRing          ErrorCode = "no ring bus configured"
	ErrCodeFatal           ErrorCode = "fatal"
	ErrCodeInvalidArgument ErrorCode = "invalid argument"
)

// Error is xtask's structured error type: an operation, a kernel/tile
// identifier when relevant, a category and an optional wrapped cause.
// Shaped after the block-device runner's errors.go *Error; the cause is kept
// unchanged in Inner rather than wrapped.
type Error struct {
	Op     string
	Kernel uint32
	Code   ErrorCode
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		if e.Kernel != 0 {
			return fmt.Sprintf("xtask: %s (op=%s kernel=%d)", msg, e.Op, e.Kernel)
		}
		return fmt.Sprintf("xtask: %s (op=%s)", msg, e.Op)
	}
	return fmt.Sprintf("xtask: %s", msg)
}

// Unwrap supports errors.Is/errors.As over the wrapped cause.
func (e *Error) Unwrap() error { return e.Inner }

// Is supports comparison against another *Error by Code.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError creates a structured error with no wrapped cause.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewKernelError creates a structured error scoped to a specific kernel.
func NewKernelError(op string, kernel uint32, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Kernel: kernel, Code: code, Msg: msg}
}

// WrapError wraps an existing error with xtask context, preserving Code if
// inner is already a *Error.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ue, ok := inner.(*Error); ok {
		return &Error{Op: op, Kernel: ue.Kernel, Code: ue.Code, Msg: ue.Msg, Inner: ue.Inner}
	}
	return &Error{Op: op, Code: ErrCodeFatal, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err (or any error it wraps) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Code == code
	}
	return false
}

// Sentinel errors for simple, code-free comparisons in hot call paths.
var (
	ErrInvalidHandle = &Error{Code: ErrCodeInvalidHandle, Msg: "invalid virtual channel handle"}
	ErrNoRing        = &Error{Code: ErrCodeNoRing, Msg: "no ring bus configured for this tile"}
	ErrCapacity      = &Error{Code: ErrCodeCapacity, Msg: "fixed-capacity table exhausted"}
)
