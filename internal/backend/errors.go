package backend

import (
	"errors"
	"net/http"
)

// ErrUnauthorized is matched (via errors.Is) by any error caused by a 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNoToken is returned by Login when a 2xx response carries no access_token.
var ErrNoToken = errors.New("login response has no access_token")

// StatusError is a non-2xx response from the prediction API.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

// Error returns the response body, which is what the API uses to explain
// itself.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return http.StatusText(e.Code)
	}
	return e.Body
}

// Is reports whether the status error stands for ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// IsUnauthorized reports whether err was caused by a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
