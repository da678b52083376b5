// Package xerrors provides error-wrapping helpers; no other xtask package
// imports it. It builds on github.com/pkg/errors instead of fmt.Errorf's
// "%w", grounded on ghjramos-aistore's pervasive use of pkg/errors for
// wrapped, stack-carrying errors.
package xerrors

import (
	"github.com/pkg/errors"
)

// Wrap annotates err with op, preserving the original error as Cause().
// Returns nil if err is nil, matching the block-device runner's WrapError behavior.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, op)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// Cause unwraps err to its root cause, the pkg/errors way.
func Cause(err error) error {
	return errors.Cause(err)
}

// New is a thin re-export so callers don't need a second errors import.
func New(msg string) error {
	return errors.New(msg)
}
