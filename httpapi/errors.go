package httpapi

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-user-tracker/pkg/types"
)

const textCodeForbidden = "FORBIDDEN"

func forbidden(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(textCodeForbidden)
}

// ErrorPayload is the JSON body returned for failed requests.
type ErrorPayload struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody describes the failure.
type ErrorBody struct {
	TextCode string `json:"text_code"`
	Message  string `json:"message"`
}

func statusFor(err error) int {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return http.StatusInternalServerError
	}
	switch rich.TextCode {
	case types.TextCodeNotAuthenticated:
		return http.StatusUnauthorized
	case textCodeForbidden:
		return http.StatusForbidden
	case types.TextCodeInvalidEvent:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorPayload(err error) ErrorPayload {
	body := ErrorBody{TextCode: "INTERNAL_ERROR", Message: "internal error"}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		switch rich.TextCode {
		case types.TextCodeNotAuthenticated:
			body = ErrorBody{TextCode: rich.TextCode, Message: "Not authenticated"}
		case textCodeForbidden:
			body = ErrorBody{TextCode: rich.TextCode, Message: "Forbidden"}
		case types.TextCodeInvalidEvent:
			body = ErrorBody{TextCode: rich.TextCode, Message: err.Error()}
		}
	}
	return ErrorPayload{Success: false, Error: body}
}

func (h *Handlers) writeError(ctx router.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", err)
	}
	return ctx.JSON(status, errorPayload(err))
}
