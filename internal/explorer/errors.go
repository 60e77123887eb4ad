package explorer

import (
	"fmt"
	"net/http"
)

// NetworkError is a transport-level failure: DNS, timeouts, refused
// connections, non-2xx responses or an undecodable body.
type NetworkError struct {
	Detail     string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	return "network error: could not reach explorer API: " + e.Detail
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the same request may succeed.
func (e *NetworkError) Temporary() bool {
	switch {
	case e.StatusCode == 0:
		return e.Err != nil
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return e.StatusCode >= 500
	}
}

// APIError is a logical failure reported by the explorer in an otherwise
// successful response (status != "1"), e.g. an invalid key or rate limit.
type APIError struct {
	Message string
	Result  string
}

func (e *APIError) Error() string {
	if e.Result == "" {
		return fmt.Sprintf("API error: %s", e.Message)
	}
	return fmt.Sprintf("API error: %s - %s", e.Message, e.Result)
}
