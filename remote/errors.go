package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure reported by the API, either through the HTTP status
// or through a `success: false` body.
type Error struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: status %d (%s): %s", e.Method, e.Path, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

func status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return status(err) == http.StatusNotFound
}

// IsAuth reports a 401/403, including calls made while nobody is logged in.
// These are expected while browsing logged out and are kept out of the
// notice feed.
func IsAuth(err error) bool {
	s := status(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Message returns text that can be shown to the user for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if t := http.StatusText(e.Status); t != "" {
			return t
		}
	}
	return "Network error, please try again"
}
