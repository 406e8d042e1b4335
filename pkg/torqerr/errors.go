// Package torqerr implements the error taxonomy shared across the codec,
// relay, transport, and enrichment layers: every error constructed by this
// module carries a Category so callers can classify retryability once,
// centrally, instead of re-deriving it from error strings at each call site.
package torqerr

import "fmt"

// Category is one of the error classes from the system's error handling
// design. Retryable() is a pure function of Category.
type Category string

const (
	Network          Category = "network"
	Connection       Category = "connection"
	Protocol         Category = "protocol"
	Configuration    Category = "configuration"
	Security         Category = "security"
	Compression      Category = "compression"
	Timeout          Category = "timeout"
	ResourceExhausted Category = "resource_exhausted"
	Topology         Category = "topology"
	HealthCheck      Category = "health_check"
	Precision        Category = "precision"
)

// retryable maps each category to its transient/non-transient classification.
var retryable = map[Category]bool{
	Network:           true,
	Connection:        true,
	Protocol:          false,
	Configuration:     false,
	Security:          false,
	Compression:       false,
	Timeout:           true,
	ResourceExhausted: true,
	Topology:          false,
	HealthCheck:       true,
	Precision:         false,
}

// Error is the concrete error value every package in this module
// constructs instead of returning a bare fmt.Errorf or ad-hoc string error.
type Error struct {
	Category Category
	Op       string // the operation that failed, e.g. "tlv.ParseHeader"
	Err      error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Category, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Category)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the error's category is transient.
func (e *Error) Retryable() bool { return retryable[e.Category] }

// New constructs an Error with no wrapped cause.
func New(cat Category, op, msg string) *Error {
	return &Error{Category: cat, Op: op, Err: fmt.Errorf("%s", msg)}
}

// Wrap constructs an Error wrapping an existing error under the given
// category and operation name.
func Wrap(cat Category, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Category: cat, Op: op, Err: err}
}

// IsRetryable reports whether err (or any error in its Unwrap chain that is
// a *Error) is retryable. A plain, uncategorized error is treated as
// non-retryable — callers must opt in to retries by categorizing errors.
func IsRetryable(err error) bool {
	var te *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			te = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if te == nil {
		return false
	}
	return te.Retryable()
}
