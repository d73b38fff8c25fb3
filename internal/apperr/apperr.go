// Package apperr defines the coded errors raised by resolvers and handlers.
// Every failure a client can trigger carries an HTTP-style status and, for
// validation failures, a list of field messages. Anything without a code is an
// internal error.
package apperr

import "errors"

// Error is a request-level failure with an explicit status code.
type Error struct {
	Status  int
	Message string
	Data    []string
}

func (e *Error) Error() string { return e.Message }

// Extensions exposes the status code and field messages to the GraphQL error
// formatter, so they end up in the response envelope.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"status": e.Status}
	if len(e.Data) > 0 {
		ext["data"] = e.Data
	}
	return ext
}

// Unauthorized builds a 401 error.
func Unauthorized(message string) *Error {
	return &Error{Status: 401, Message: message}
}

// Forbidden builds a 403 error.
func Forbidden(message string) *Error {
	return &Error{Status: 403, Message: message}
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return &Error{Status: 404, Message: message}
}

// Invalid builds a 422 error carrying one message per failed field check.
func Invalid(message string, data []string) *Error {
	return &Error{Status: 422, Message: message, Data: data}
}

// From extracts a coded error from err, if one is present in its chain.
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
