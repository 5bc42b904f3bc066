// Package apperrors defines the named error kinds returned to API clients.
// Every kind carries a stable name, a human-readable message and the HTTP
// status it maps to. Anything that is not an *Error is treated as internal.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a client-facing error with a stable name.
type Error struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Name + ": " + e.Message
}

// Is matches on Name so callers can use errors.Is(err, apperrors.NoUser("")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Name == e.Name
}

// Stable error names sent to clients in the "name" field.
const (
	NameMissingCredentials   = "MissingCredentialsError"
	NameIncorrectCredentials = "IncorrectCredentialsError"
	NameUserExists           = "UserExistsError"
	NamePasswordLength       = "PasswordLengthError"
	NamePasswordTooLong      = "PasswordTooLongError"
	NameUserCreation         = "UserCreationError"
	NameNoUser               = "NoUser"
	NameMissingUser          = "MissingUserError"
	NameInvalidBody          = "InvalidRequestBodyError"
	NameNotFound             = "NotFoundError"
	NameDatabaseUnavailable  = "DatabaseUnavailableError"
	NameInternal             = "InternalServerError"
)

// MissingCredentials is returned when the username or password is absent.
func MissingCredentials() *Error {
	return &Error{NameMissingCredentials, "Please supply both a username and password", http.StatusBadRequest}
}

// IncorrectCredentials is returned when no account matches the supplied credentials.
func IncorrectCredentials() *Error {
	return &Error{NameIncorrectCredentials, "Username or password is incorrect", http.StatusUnauthorized}
}

// UserExists is returned when registering a username that is taken.
func UserExists() *Error {
	return &Error{NameUserExists, "A user by that username already exists", http.StatusUnauthorized}
}

// PasswordLength is returned when a new password is shorter than the minimum.
func PasswordLength() *Error {
	return &Error{NamePasswordLength, "Password Too Short!", http.StatusUnauthorized}
}

// PasswordTooLong is returned when a new password exceeds limit bytes.
func PasswordTooLong(limit int) *Error {
	return &Error{NamePasswordTooLong, fmt.Sprintf("Password must be at most %d bytes", limit), http.StatusBadRequest}
}

// UserCreation is returned when the store created no account.
func UserCreation() *Error {
	return &Error{NameUserCreation, "There was a problem registering you. Please try again.", http.StatusInternalServerError}
}

// NoUser is returned when a username in the path does not exist.
func NoUser(username string) *Error {
	return &Error{NameNoUser, fmt.Sprintf("Error looking up user %s", username), http.StatusNotFound}
}

// MissingUser is returned when a route requires a logged-in user and there is none.
func MissingUser() *Error {
	return &Error{NameMissingUser, "You must be logged in to perform this action", http.StatusUnauthorized}
}

// InvalidBody is returned when a request body is not valid JSON.
func InvalidBody() *Error {
	return &Error{NameInvalidBody, "Invalid request body", http.StatusBadRequest}
}

// NotFound is returned for unknown routes.
func NotFound(path string) *Error {
	return &Error{NameNotFound, fmt.Sprintf("Route %s not found", path), http.StatusNotFound}
}

// DatabaseUnavailable is returned by the health check when the database cannot be reached.
func DatabaseUnavailable() *Error {
	return &Error{NameDatabaseUnavailable, "Database is unavailable", http.StatusServiceUnavailable}
}

// internal is what clients see for any unrecognised error.
func internal() *Error {
	return &Error{NameInternal, "Something went wrong", http.StatusInternalServerError}
}

// From resolves err to a client-facing *Error. The second result is false when
// err is not a known kind and a generic internal error was substituted.
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return internal(), false
}
