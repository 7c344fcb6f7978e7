package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryBackend    Category = "backend"
	CategoryBuffer     Category = "buffer"
	CategoryValidation Category = "validation"
	CategorySource     Category = "source"
	CategoryDecode     Category = "decode"
	CategoryCompute    Category = "compute"
	CategoryConfig     Category = "config"
)

// OpError is the structured error type used throughout the module.
type OpError struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// New creates an OpError.
func New(category Category, op string, err error) *OpError {
	return &OpError{Category: category, Op: op, Err: err}
}

// Wrap wraps an existing error with context.  Returns nil for a nil error.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Category == cat
	}
	return false
}

// Sentinel errors for the failure taxonomy.  Validation errors
// (ErrSizeMismatch, ErrInvalidParameter, ErrMalformedBuffer) are raised
// before any cache interaction and are never stored; ErrComputationFailed
// wraps failures from the delegated processing collaborator.
var (
	ErrUnsupportedBackend = errors.New("unsupported backend")
	ErrMalformedBuffer    = errors.New("malformed pixel buffer")
	ErrSizeMismatch       = errors.New("image size mismatch")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrSourceNotFound     = errors.New("source not found")
	ErrDecodeFailed       = errors.New("image decode failed")
	ErrComputationFailed  = errors.New("computation failed")
)
