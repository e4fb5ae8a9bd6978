package trainer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FallbackSubmissionMessage is shown when a failed training response has no message.
const FallbackSubmissionMessage = "Processing failed"

// SubmissionError is any failed training round trip.
type SubmissionError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Err        error  `json:"-"`
}

// Error returns the user-facing message.
func (e *SubmissionError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the transport or decode cause for errors.Is / errors.As.
func (e *SubmissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RequestError is any failed prediction round trip.
type RequestError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Err        error  `json:"-"`
}

// Error returns the user-facing message.
func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type errorField struct {
	Error json.RawMessage `json:"error"`
}

// serverError inspects a body for an "error" field. ok is true when the field
// holds a truthy value: false, "", 0 and null count as absent. message is the
// string value, or the raw JSON text for non-string values.
func serverError(body []byte) (message string, ok bool) {
	var field errorField
	if err := json.Unmarshal(body, &field); err != nil {
		return "", false
	}
	raw := bytes.TrimSpace(field.Error)
	if len(raw) == 0 {
		return "", false
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	switch v := value.(type) {
	case nil:
		return "", false
	case bool:
		if !v {
			return "", false
		}
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		if v == 0 {
			return "", false
		}
	}
	return string(raw), true
}

func isJSONObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

func httpStatusMessage(code int) string {
	return fmt.Sprintf("HTTP error: status %d", code)
}
