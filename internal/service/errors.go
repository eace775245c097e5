package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrMerchantNotFound = fmt.Errorf("merchant %w", ErrNotFound)
	ErrMenuNotFound     = fmt.Errorf("menu %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrSessionNotFound  = fmt.Errorf("session %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrPaymentNotFound  = fmt.Errorf("payment %w", ErrNotFound)
	ErrAdminNotFound    = fmt.Errorf("admin %w", ErrNotFound)

	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrGateway            = errors.New("payment gateway error")
)

// ErrInvalidOrderState is returned when an order's status does not allow the requested action
var ErrInvalidOrderState error = &ConflictError{Message: "order is not in a state that allows this action"}

// ValidationError describes a rejected field and renders as a bad request
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid builds a ValidationError with a formatted message
func Invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError carries a client facing message for a 409 response
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// CategoryInUseError is returned when menus still reference a category
type CategoryInUseError struct {
	MenuCount int64
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category is used by %d menu(s)", e.MenuCount)
}

func (e *CategoryInUseError) Unwrap() error { return ErrConflict }
