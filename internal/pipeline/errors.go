// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"

	"github.com/pdiddy/docpipe/pkg/types"
)

// ErrResource is wrapped by backends that ran out of memory or hit a similar
// transient limit. The router retries it like any unit failure; the operator
// remedy is a smaller chunk duration.
var ErrResource = errors.New("insufficient resources")

// UnsupportedFormatError reports a file that neither its extension nor its
// content identifies. It is fatal for the file and never retried.
type UnsupportedFormatError struct {
	Path      string
	Extension string
	MIME      string
}

func (e *UnsupportedFormatError) Error() string {
	if e.MIME != "" {
		return fmt.Sprintf("unsupported format for %s (extension %q, content %s)", e.Path, e.Extension, e.MIME)
	}
	return fmt.Sprintf("unsupported format for %s (extension %q)", e.Path, e.Extension)
}

// Permanent marks the error as not retryable.
func (e *UnsupportedFormatError) Permanent() bool { return true }

// DocumentOpenError reports a PDF or image that cannot be parsed at all
// (corrupt, encrypted). It is fatal for the file and never retried.
type DocumentOpenError struct {
	Path string
	Err  error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("opening document %s: %v", e.Path, e.Err)
}

func (e *DocumentOpenError) Unwrap() error { return e.Err }

// Permanent marks the error as not retryable.
func (e *DocumentOpenError) Permanent() bool { return true }

// UnitExtractionError reports a unit whose backend call failed on every
// attempt.
type UnitExtractionError struct {
	Unit     types.Unit
	Attempts int
	Err      error
}

func (e *UnitExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Unit, e.Err)
}

func (e *UnitExtractionError) Unwrap() error { return e.Err }

// IsFatal reports whether err aborts a whole file without retry.
func IsFatal(err error) bool {
	var uf *UnsupportedFormatError
	var do *DocumentOpenError
	return errors.As(err, &uf) || errors.As(err, &do)
}

// unitError turns a failed ExtractionResult into a UnitExtractionError,
// keeping fatal errors as they are.
func unitError(res types.ExtractionResult) error {
	if IsFatal(res.Err) {
		return res.Err
	}
	return &UnitExtractionError{Unit: res.Unit, Attempts: res.Attempts, Err: res.Err}
}
