package marketplace

import "fmt"

// APIError represents a marketplace call that was rejected upstream.
// Fatal to the enclosing pipeline stage unless the call site declares a
// skip-and-continue policy.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("marketplace %s error (status %d): %s: %v",
			e.Endpoint, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("marketplace %s error (status %d): %s",
		e.Endpoint, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IntegrityError represents a response that decoded but violates the
// expected contract, such as a search result with no results array.
type IntegrityError struct {
	Endpoint string
	Field    string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("marketplace %s response missing %q", e.Endpoint, e.Field)
}
