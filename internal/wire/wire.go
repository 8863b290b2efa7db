// Package wire holds the canonical types for RefConnect API payloads and the
// decoding shims that normalize the server's inconsistent wire shapes.
//
// The backend serializes some resources in camelCase and others in PascalCase
// depending on the controller. encoding/json matches field names
// case-insensitively, which absorbs the pure casing variants; the helpers in
// this package cover the rest: timestamps with and without zone information,
// booleans wrapped in single-field envelopes, and claims that arrive as either
// a string or a list. Nothing outside this package branches on wire shape.
package wire

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// timeFormats lists the timestamp layouts the backend has been observed to
// emit, tried in order.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time is a time.Time that tolerates the backend's timestamp variants.
// Null and empty strings decode to the zero value.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	var lastErr error
	for _, layout := range timeFormats {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}

	return lastErr
}

// Now returns the current wall clock as a wire Time.
func Now() Time {
	return Time{Time: time.Now()}
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Truthy interprets a boolean-ish response body: a bare boolean, the string
// "true", or an object carrying the value under one of the given keys
// (matched case-insensitively). Anything else is false.
func Truthy(data []byte, keys ...string) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return false
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return b
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.EqualFold(s, "true")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		for k, v := range obj {
			for _, key := range keys {
				if strings.EqualFold(k, key) {
					return Truthy(v)
				}
			}
		}
	}

	return false
}

// StringList decodes a JSON value that is either a single string or a list of
// strings. Used for role claims.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// firstNonEmpty returns the first non-empty string of its arguments.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
