package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOrders is returned when order history is empty.
	ErrNoOrders = errors.New("no order history available")
	// ErrEmptyCode is returned when a scan carries no code.
	ErrEmptyCode = errors.New("product code is empty")
	// ErrEmptyCart is returned when finalizing a cart without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoPendingItem is returned when confirming or cancelling without a pending item.
	ErrNoPendingItem = errors.New("no pending item")
	// ErrProductFieldsRequired is returned when a product lacks a code or description.
	ErrProductFieldsRequired = errors.New("product code and description are required")
)

// DuplicateCodeError reports a catalogue write that targets a code owned by another entry.
type DuplicateCodeError struct {
	Code string
}

func (e DuplicateCodeError) Error() string {
	return fmt.Sprintf("product code %q already exists", e.Code)
}

// ProductNotFoundError reports an edit of a code that is not catalogued.
type ProductNotFoundError struct {
	Code string
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.Code)
}

// InvalidQuantityError reports a quantity that is not a positive integer.
type InvalidQuantityError struct {
	Input string
}

func (e InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %q: enter a whole number greater than zero", e.Input)
}

// NoValidItemsError reports a catalogue import that produced no description/code pairs.
type NoValidItemsError struct{}

func (NoValidItemsError) Error() string {
	return "no valid items found: expected alternating lines of description then code"
}

// UnreadableFileError wraps a failure to read an import file.
type UnreadableFileError struct {
	Name string
	Err  error
}

func (e UnreadableFileError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to read or parse file: %v", e.Err)
	}
	return fmt.Sprintf("failed to read or parse file %s: %v", e.Name, e.Err)
}

func (e UnreadableFileError) Unwrap() error { return e.Err }
