package types

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodePersistence tags failures coming from the event store.
	TextCodePersistence = "PERSISTENCE_ERROR"
	// TextCodeNotAuthenticated tags pull endpoint calls without a session.
	TextCodeNotAuthenticated = "NOT_AUTHENTICATED"
	// TextCodeInvalidEvent tags host events that could not be decoded.
	TextCodeInvalidEvent = "INVALID_EVENT"
)

// PersistenceError wraps a storage failure (unreachable store, rejected
// write). The Activity Logger swallows these at the adapter boundary.
func PersistenceError(err error, msg string) *goerrors.Error {
	if err == nil {
		return goerrors.New(msg, goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(TextCodePersistence)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithCode(goerrors.CodeInternal).
		WithTextCode(TextCodePersistence)
}

// NotAuthenticated reports a pull endpoint call without an authenticated
// session. Callers must not mutate state when returning it.
func NotAuthenticated(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(TextCodeNotAuthenticated)
}

// InvalidEvent reports a malformed host event payload.
func InvalidEvent(err error, msg string) *goerrors.Error {
	if err == nil {
		return goerrors.New(msg, goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeInvalidEvent)
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeInvalidEvent)
}

// IsPersistenceError reports whether err carries the persistence text code.
func IsPersistenceError(err error) bool {
	return hasTextCode(err, TextCodePersistence)
}

// IsNotAuthenticated reports whether err carries the not-authenticated text code.
func IsNotAuthenticated(err error) bool {
	return hasTextCode(err, TextCodeNotAuthenticated)
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
