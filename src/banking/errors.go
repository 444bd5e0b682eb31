package banking

import "fmt"

// HTTPError is the single failure type for provider calls. Connection errors,
// non-2xx responses and JSON decode failures all map to it. The response body
// is logged by the client but kept here for operator inspection only; it is
// never shown to the end user.
type HTTPError struct {
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Enable Banking API error: %s", e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
