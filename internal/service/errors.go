package service

import (
	"errors"
	"fmt"
)

// ErrInsufficientBalance is returned when the cart total exceeds the
// account's balance. No writes happen on this path.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrAccountNotFound is returned for an unknown account when the
// placeholder-account fallback is disabled.
var ErrAccountNotFound = errors.New("account not found")

// InsufficientStockError names the offending item and what is actually
// available, so the storefront can tell the buyer how to shrink the line.
type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

// ItemNotFoundError is returned when a cart references a catalog item that
// no longer exists.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found", e.ItemID)
}

// ValidationError rejects a malformed request before any store access.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
