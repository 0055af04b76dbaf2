// Package errors provides error handling for stubgen.
//
// It re-exports github.com/cockroachdb/errors so the rest of the codebase
// gets stack traces, wrapping, and errors.Is/As through one import:
//
//	if err := loader.Load(ctx, mod, reg); err != nil {
//	    return errors.Wrapf(err, "loading %s", mod.ID)
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping.
var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithStack   = crdb.WithStack
	WithMessage = crdb.WithMessage
	WithHint    = crdb.WithHint
	WithDetail  = crdb.WithDetail
)

// Error inspection.
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
	Join   = crdb.Join
)

// Sentinel errors shared across the pipeline. Wrap these with errors.Wrap to
// add context while keeping errors.Is checks working.
var (
	// ErrNotFound indicates a requested file, module, or tool does not exist.
	ErrNotFound = New("not found")

	// ErrToolchain indicates the external Qt toolchain could not be located.
	ErrToolchain = New("toolchain not found")

	// ErrBadDocument indicates a module emitted an unparseable registration
	// document.
	ErrBadDocument = New("malformed registration document")
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}
