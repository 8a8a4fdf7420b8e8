package api

import (
	"errors"
	"net/http"
)

// AppError is an error with an HTTP status, rendered as {"detail": "..."}.
type AppError struct {
	Code   int    `json:"-"`
	Detail string `json:"detail"`
}

func (e *AppError) Error() string {
	return e.Detail
}

var (
	ErrInvalidSecretKey = &AppError{Code: http.StatusForbidden, Detail: "Forbidden: Invalid secret key"}
	ErrNotFound         = &AppError{Code: http.StatusNotFound, Detail: "Not Found"}
	ErrMethodNotAllowed = &AppError{Code: http.StatusMethodNotAllowed, Detail: "Method Not Allowed"}
	ErrInvalidUpstream  = &AppError{Code: http.StatusInternalServerError, Detail: "Invalid response format from memory store"}
)

func NewBadRequestError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Detail: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Detail: msg}
}

// NewValidationError reports a missing or malformed request field.
func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Detail: msg}
}

// NewInternalError exposes err's text to the caller with a 500.
func NewInternalError(err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Detail: err.Error()}
}

func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONError(w, appErr.Code, appErr.Detail)
		return
	}
	JSONError(w, http.StatusInternalServerError, "internal server error")
}
