package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrProtocol marks responses that do not have the expected shape.
var ErrProtocol = errors.New("unexpected api response")

// Error is a non-2xx answer from the API.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string // server supplied message, if any
	Body       string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: received non-2xx status code: %d, body: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newError(method, path string, status int, body []byte) *Error {
	apiErr := &Error{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Message = parsed.Message
		if apiErr.Message == "" {
			apiErr.Message = parsed.Error
		}
	}
	return apiErr
}

// Message renders err for a human: the server message when the API sent one,
// err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
