// Package nverror defines the error payload rendered by a storage node. Its
// JSON shape is the one parsed by the vault package's node client.
package nverror

import "net/http"

type (
	// An Error represents the error format that can be rendered by a node.
	Error struct {
		HTTPCode   int `json:"-"`
		FieldError err `json:"error"`
	}

	err struct {
		Tag     string `json:"tag,omitempty"`
		Message string `json:"message"`
	}
)

// StatusCode returns the HTTP status code.
func StatusCode(err error) int {
	if nverr, ok := err.(*Error); ok && nverr.HTTPCode > 0 {
		return nverr.HTTPCode
	}
	return http.StatusInternalServerError
}

// New returns a new Error with the given message.
func New(message string) *Error {
	return &Error{FieldError: err{Message: message}}
}

// NewWithTagCode returns a new Error with the given code, tag and message.
func NewWithTagCode(code int, tag, message string) *Error {
	return &Error{HTTPCode: code, FieldError: err{Tag: tag, Message: message}}
}

// Error implements error interface.
func (e *Error) Error() string {
	return e.FieldError.Message
}
