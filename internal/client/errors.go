package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a request
// because the server has been failing.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
	TraceID string
}

func (e *APIError) Error() string {
	if e.TraceID != "" {
		return fmt.Sprintf("api error %d: %s (trace %s)", e.Status, e.Message, e.TraceID)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsServerError reports whether the response was a 5xx.
func (e *APIError) IsServerError() bool {
	return e.Status >= http.StatusInternalServerError
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
