package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrInsufficientStock = errors.New("insufficient stock") // 400
	ErrEmptyCart         = errors.New("cart is empty")      // 400
	ErrEmptyMessage      = errors.New("message cannot be empty")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrUnauthorized      = errors.New("unauthorized") // 401
	ErrForbidden         = errors.New("forbidden")    // 403
	ErrProcessor         = errors.New("payment processor error")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidPayload    = errors.New("invalid payload")
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func FieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type StockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.ProductName)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// ProcessorError is a payment provider rejection whose message is safe to show.
type ProcessorError struct {
	Msg string
	Err error
}

func (e *ProcessorError) Error() string { return e.Msg }

func (e *ProcessorError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProcessor}
	}
	return []error{ErrProcessor, e.Err}
}
