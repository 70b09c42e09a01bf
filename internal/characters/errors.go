package characters

import "fmt"

// NetworkError reports a request that produced no HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response. Body holds the upstream text, if any.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: api returned status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: api returned status %d", e.Op, e.Status)
}

// Detail returns the upstream body text, or "Error <status>" when empty.
func (e *HTTPError) Detail() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("Error %d", e.Status)
}

// InvalidPayloadError reports a 2xx response whose body has the wrong shape.
type InvalidPayloadError struct {
	Op  string
	Err error
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("%s: invalid payload: %v", e.Op, e.Err)
}

func (e *InvalidPayloadError) Unwrap() error { return e.Err }
