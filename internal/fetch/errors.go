package fetch

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// RequestError describes a failed round trip. Status is 0 when no response arrived.
type RequestError struct {
	Method  string
	URL     string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.Status, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func newStatusError(method, url string, status int, body []byte) *RequestError {
	var payload struct {
		Message string `json:"message"`
	}
	msg := fmt.Sprintf("request failed with status %d", status)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &RequestError{Method: method, URL: url, Status: status, Message: msg}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}
