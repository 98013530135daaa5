package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error is returned for every failed backend call. StatusCode is zero when
// the request never produced a response.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the backend's human-readable "message" field, when the
	// error body carried one.
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MessageOr returns the structured message carried by err, or fallback
// when err is not a transport error or its body had no message.
func MessageOr(err error, fallback string) string {
	var terr *Error
	if errors.As(err, &terr) && strings.TrimSpace(terr.Message) != "" {
		return terr.Message
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.StatusCode
	}
	return 0
}

// errorBody is the subset of the error envelope the client interprets.
type errorBody struct {
	Message string `json:"message"`
}

func extractMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return strings.TrimSpace(eb.Message)
}
