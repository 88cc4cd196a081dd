package restock

import (
	"errors"
	"strings"

	"medrestock/internal/inventory"
)

var (
	// ErrStopped is returned when a refresh is requested while the poller is
	// not active, or when it was torn down mid-cycle.
	ErrStopped = errors.New("restock board is not active")
	// ErrThrottled is returned when focus refreshes arrive faster than allowed.
	ErrThrottled = errors.New("refresh throttled")
)

// ValidationError is a local, pre-network rejection of user input.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

const transportMessage = "Could not reach the inventory service. Please try again."

// userMessage is the text handed to the message-display collaborator.
func userMessage(err error) string {
	var (
		valErr *ValidationError
		rej    *inventory.RemoteRejection
	)
	switch {
	case errors.As(err, &valErr):
		return strings.Join(valErr.Fields, "; ")
	case errors.As(err, &rej):
		return rej.Message
	case errors.Is(err, ErrStopped):
		return "The restock board is not active."
	default:
		return transportMessage
	}
}

// resultLabel buckets an error for metrics.
func resultLabel(err error) string {
	var (
		valErr *ValidationError
		rej    *inventory.RemoteRejection
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &valErr):
		return "validation_error"
	case errors.As(err, &rej):
		return "rejected"
	default:
		return "transport_error"
	}
}
