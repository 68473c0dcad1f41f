package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrUnauthorized matches any *Error with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from either backend.
type Error struct {
	Status  int
	Message string
	// Body is the raw response body, kept for callers that need more than the message.
	Body []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// IsStatus reports whether err is an *Error carrying the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func newError(status int, body []byte) *Error {
	msg := "API Error"
	if gjson.ValidBytes(body) {
		for _, field := range []string{"message", "detail", "error"} {
			if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.String() != "" {
				msg = v.String()
				break
			}
		}
	}
	return &Error{Status: status, Message: msg, Body: body}
}
