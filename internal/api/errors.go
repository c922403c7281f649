package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned by every Client method. Status is zero when the request
// never got a response.
type Error struct {
	Op        string
	Method    string
	Path      string
	Status    int
	Message   string // server-supplied message, verbatim
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	default:
		return e.Op + ": request failed"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ServerMessage is the text to show an operator: the backend's own message
// when it sent one, otherwise the transport error or the HTTP status text.
func (e *Error) ServerMessage() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Status != 0:
		return http.StatusText(e.Status)
	default:
		return "request failed"
	}
}

// serverMessage extracts "error" or "message" from a JSON error body. A
// non-JSON body is returned as-is when it is short enough to be a message.
func serverMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != nil {
			return fmt.Sprint(payload.Error)
		}
		return ""
	}

	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
