package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNetwork wraps failures that happen before a response arrives.
var ErrNetwork = errors.New("network error")

// StatusError is returned for any non-2xx response of the data endpoint.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from the data endpoint.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
