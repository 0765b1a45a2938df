package blog

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches a StatusError with code 404.
	ErrNotFound = errors.New("blog: not found")
	// ErrBadResponse is returned when a JSON endpoint answers 2xx with a body
	// that is empty or not JSON.
	ErrBadResponse = errors.New("blog: bad response body")
)

// StatusError is a non-2xx answer from the blog service.
type StatusError struct {
	Endpoint  string
	Code      int
	RequestID string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d (request %s)", e.Endpoint, e.Code, e.RequestID)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}
