package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique field (customer email, invoice number) is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidTransition is returned when an invoice state change is not allowed.
	ErrInvalidTransition = errors.New("invalid invoice state transition")
	// ErrStateConflict means the invoice changed state between read and update.
	ErrStateConflict = errors.New("invoice state changed concurrently")
	// ErrConsumptionUnknown means the reading carries no consumption to bill.
	ErrConsumptionUnknown = errors.New("reading consumption unknown")
	// ErrReadingMismatch means the reading belongs to a different customer.
	ErrReadingMismatch = errors.New("reading does not belong to customer")
	// ErrSequenceExhausted means the monthly invoice counter passed 9999.
	ErrSequenceExhausted = errors.New("invoice sequence exhausted for month")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every failing field of one input.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Add appends a field failure.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns nil when no failure was recorded.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// AsValidation extracts field failures from err, if any.
func AsValidation(err error) (ValidationErrors, bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many, true
	}
	var one ValidationError
	if errors.As(err, &one) {
		return ValidationErrors{one}, true
	}
	return nil, false
}

// ErrDelivery wraps failures of the PDF renderer or mail transport.
var ErrDelivery = errors.New("delivery failed")
