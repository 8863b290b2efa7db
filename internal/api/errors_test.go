package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"errorMessage field", 400, `{"errorMessage":"nope"}`, "nope"},
		{"pascal case field", 400, `{"ErrorMessage":"nope"}`, "nope"},
		{"message field", 400, `{"message":"broken"}`, "broken"},
		{"problem details title", 400, `{"title":"One or more validation errors occurred."}`, "One or more validation errors occurred."},
		{"quoted string body", 400, `"plain failure"`, "plain failure"},
		{"plain text body", 500, `something went wrong`, "something went wrong"},
		{"empty body", 500, ``, ""},
		{
			"validation errors map",
			400,
			`{"errors":{"Email":["The Email field is required."],"Password":["Too short"]}}`,
			"email: The Email field is required.; password: Too short",
		},
		{
			"model state map",
			400,
			`{"ModelState":{"GroupName":["required"]}}`,
			"groupname: required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := decodeError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestIsStatus(t *testing.T) {
	err := decodeError(http.StatusMethodNotAllowed, nil)
	assert.True(t, IsStatus(err, http.StatusMethodNotAllowed))
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(assert.AnError, http.StatusMethodNotAllowed))

	assert.True(t, IsUnauthorized(decodeError(http.StatusUnauthorized, nil)))
}

func TestNormalizeAssetURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"absolute passes through", "https://api.example.com/api", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"uploads path drops api suffix", "https://api.example.com/api", "/uploads/a.png", "https://api.example.com/uploads/a.png"},
		{"api path keeps host root", "https://api.example.com/api", "/api/files/a.png", "https://api.example.com/api/files/a.png"},
		{"relative path joins base", "https://api.example.com/api", "files/a.png", "https://api.example.com/api/files/a.png"},
		{"empty path", "https://api.example.com/api", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAssetURL(tt.base, tt.path))
		})
	}
}
