package inventory

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrAlreadyCompleted matches a rejection that means the order was already
// delivered. Callers treat it as a terminal success.
var ErrAlreadyCompleted = errors.New("restock order already completed")

// TransportError covers everything that kept a request from getting a
// usable answer: network failures, open breaker, 5xx, undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inventory %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteRejection is a non-success answer from the inventory service. Message
// is what the service said and is shown to the user verbatim.
type RemoteRejection struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteRejection) Error() string {
	return e.Message
}

func (e *RemoteRejection) Is(target error) bool {
	if target != ErrAlreadyCompleted {
		return false
	}
	return e.StatusCode == http.StatusConflict &&
		strings.Contains(strings.ToLower(e.Message), "already completed")
}
