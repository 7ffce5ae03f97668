// Package rxerr carries the error kinds spec.md §7 defines for the receive
// engine. Adapted from the teacher's cmn/cos sentinel-error style
// (cmn/cos/err.go's ErrNotFound) combined with github.com/pkg/errors for
// stack-annotated wrapping, the way the teacher's broader dependency graph
// uses pkg/errors elsewhere.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package rxerr

import (
	"github.com/pkg/errors"

	"github.com/aistorerx/rxstream/cmn/cos"
)

var (
	// ErrInvalidParam: feature not enabled on the worker, or malformed
	// call parameters. Short-circuits before any state change.
	ErrInvalidParam = errors.New("rxerr: invalid parameter")

	// ErrNoMemory: request allocation failed.
	ErrNoMemory = errors.New("rxerr: no memory")

	// ErrNoResource: FORCE_IMM_CMPL requested but no data available.
	ErrNoResource = errors.New("rxerr: no resource")

	// errNoProgress is spec.md's internal-only NO_PROGRESS signal; it must
	// never escape the engine to a caller.
	errNoProgress = errors.New("rxerr: no progress")
)

// Wrap annotates err with msg and a stack trace via pkg/errors, the same
// way the teacher wraps lower-layer errors before returning them up a call
// stack.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Is is a thin re-export of errors.Is so callers don't need to import both
// this package and pkg/errors to compare sentinels.
func Is(err, target error) bool { return errors.Is(err, target) }

// Fatal terminates the process for invariant violations spec.md §7
// reserves ucs_fatal for (e.g. a negative unpack result on an
// already-validated buffer). It never returns.
func Fatal(format string, args ...any) {
	cos.Exitf(format, args...)
}
