package services

import (
	"errors"
	"fmt"
)

// Deterministic business errors. Handlers map these onto HTTP statuses;
// anything else surfacing from a service is a persistence fault.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadyProcessed = errors.New("session already checked out")
	ErrEmptyCart        = errors.New("session cart is empty")
	ErrAssetNotFound    = errors.New("cart line references a missing asset")
	ErrNothingToUndo    = errors.New("no matching purchase to undo")
	ErrBadCreds         = errors.New("invalid email or password")
)

// InsufficientPaymentError carries both amounts so the caller can correct the
// payment without another round trip.
type InsufficientPaymentError struct {
	Required float64
	Provided float64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("payment %.2f does not cover cart total %.2f", e.Provided, e.Required)
}
