package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is a server-reported failure: a non-2xx status together with the
// most useful human-readable message that could be extracted from the body.
type Error struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: HTTP %d", e.StatusCode)
}

// AsError reports whether err wraps an *Error, storing it in target.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}

// IsStatus reports whether err is a server error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsUnauthorized reports whether err is a 401.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// messageKeys are the fields different controllers use for the error message,
// in preference order.
var messageKeys = []string{"errorMessage", "error", "message", "title", "detail"}

// decodeError extracts a message from an error response body. Structured
// bodies are preferred: a message field first, then validation field-error
// maps (errors or ModelState), then the raw body itself.
func decodeError(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Body: body}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return e
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		// Unstructured string body: use it as-is, unquoting if needed.
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			e.Message = s
		} else {
			e.Message = trimmed
		}
		return e
	}

	for _, key := range messageKeys {
		for k, v := range obj {
			if !strings.EqualFold(k, key) {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil && s != "" {
				e.Message = s
				return e
			}
		}
	}

	for _, key := range []string{"errors", "ModelState"} {
		for k, v := range obj {
			if !strings.EqualFold(k, key) {
				continue
			}
			if msg := flattenFieldErrors(v); msg != "" {
				e.Message = msg
				return e
			}
		}
	}

	e.Message = trimmed
	return e
}

// flattenFieldErrors renders a validation map like {"Email": ["required"]}
// into "email: required; ..." with stable field ordering.
func flattenFieldErrors(raw json.RawMessage) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		var many []string
		if err := json.Unmarshal(fields[name], &many); err != nil {
			var one string
			if err := json.Unmarshal(fields[name], &one); err != nil {
				continue
			}
			many = []string{one}
		}
		if len(many) == 0 {
			continue
		}
		parts = append(parts, strings.ToLower(name)+": "+strings.Join(many, ", "))
	}

	return strings.Join(parts, "; ")
}
