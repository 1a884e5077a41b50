package models

import (
	"errors"
	"fmt"
)

// ValidationKind identifies why a user action was rejected locally
type ValidationKind string

const (
	NoClient           ValidationKind = "NoClient"
	EmptyCart          ValidationKind = "EmptyCart"
	QuantityOutOfRange ValidationKind = "QuantityOutOfRange"
)

// ValidationError is a locally recoverable input error. It is shown inline
// and never logged as exceptional.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(kind ValidationKind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError of the given kind.
// An empty kind matches any ValidationError.
func IsValidation(err error, kind ValidationKind) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return kind == "" || ve.Kind == kind
}

// OutOfStockError is returned when a product with no stock is added to a cart
type OutOfStockError struct {
	ProductID   int64
	ProductName string
}

func (e *OutOfStockError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("product %q is out of stock", e.ProductName)
	}
	return fmt.Sprintf("product %d is out of stock", e.ProductID)
}

var (
	// ErrAlreadySubmitting is returned when a cart is submitted while a previous submission is in flight
	ErrAlreadySubmitting = errors.New("sale submission already in progress")
	// ErrLineNotFound is returned when a cart operation targets a product that is not in the cart
	ErrLineNotFound = errors.New("product not in cart")
	// ErrStaleResult is returned when a report run was superseded before its data arrived
	ErrStaleResult = errors.New("report result superseded by a newer request")

	ErrNetwork      = errors.New("network error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// BackendError wraps a failure reported by (or while reaching) the backend.
// Message carries the backend-provided text when there was one.
type BackendError struct {
	Kind    error
	Status  int
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), msg)
}

// Is makes BackendError match its Kind sentinel
func (e *BackendError) Is(target error) bool {
	return target == e.Kind
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// MalformedDataError describes a historical record field that could not be parsed.
// The offending row is isolated; the batch it belongs to keeps going.
type MalformedDataError struct {
	SaleID int64
	Field  string
	Value  string
	Err    error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("sale %d: malformed %s %q: %v", e.SaleID, e.Field, e.Value, e.Err)
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}
