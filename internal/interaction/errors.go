// internal/interaction/errors.go
package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrElementNotFound indicates the selector matched nothing in the DOM.
	ErrElementNotFound = errors.New("element not found")
	// ErrTargetClosed indicates the page or browser went away mid-operation.
	ErrTargetClosed = errors.New("browser target closed")
	// ErrInvalidSelector indicates the element reference itself is malformed:
	// an empty or unparsable query, or a negative index. Retrying cannot help.
	ErrInvalidSelector = errors.New("invalid selector")
	// ErrWaitTimeout indicates a readiness condition was not met in time.
	ErrWaitTimeout = errors.New("wait condition timed out")
	// ErrValueMismatch indicates a post-fill readback did not match the input.
	ErrValueMismatch = errors.New("field value does not match expected input")
)

// OpError carries the operation name and element description alongside the
// underlying cause, so a single log line identifies what failed on what.
type OpError struct {
	Op      string
	Element string
	Err     error
}

func (e *OpError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Element, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// fatalFragments are lowercase substrings of errors that retrying cannot fix.
var fatalFragments = []string{
	"element not found",
	"could not find node",
	"browser closed",
	"target closed",
	"context canceled",
	"session is closed",
	"navigation failed",
	"net::err_name_not_resolved",
	"net::err_connection_refused",
	"connection refused",
	"no such host",
	"invalid selector",
}

// Recoverable reports whether an operation that failed with err is worth
// retrying. Timing-dependent failures (visibility, stability, stale nodes)
// are recoverable; structural failures (missing element, dead target,
// cancellation) are not.
func Recoverable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrElementNotFound) || errors.Is(err, ErrTargetClosed) || errors.Is(err, ErrInvalidSelector) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range fatalFragments {
		if strings.Contains(msg, frag) {
			return false
		}
	}
	return true
}
