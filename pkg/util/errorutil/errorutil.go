package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Status returns the JSON status word for the error: "fail" for client errors, "error" otherwise.
func (e *DomainError) Status() string {
	if e.HTTPStatus >= 400 && e.HTTPStatus < 500 {
		return "fail"
	}
	return "error"
}

const (
	CodeMissingCredentials    = "MISSING_CREDENTIALS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeStalePassword         = "STALE_PASSWORD"
	CodeAccountGone           = "ACCOUNT_GONE"
	CodeForbidden             = "FORBIDDEN"
	CodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	CodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	CodeWrongCurrentPassword  = "WRONG_CURRENT_PASSWORD"
	CodeDeliveryFailed        = "DELIVERY_FAILED"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL_ERROR"
)

// Sentinels for the authentication taxonomy. Compare with errors.Is.
var (
	ErrMissingCredentials    = NewDomainError(CodeMissingCredentials, "Please provide email and password!", http.StatusBadRequest, nil)
	ErrInvalidCredentials    = NewDomainError(CodeInvalidCredentials, "Incorrect email or password", http.StatusUnauthorized, nil)
	ErrUnauthenticated       = NewDomainError(CodeUnauthenticated, "You are not logged in! Please log in to get access.", http.StatusUnauthorized, nil)
	ErrStalePassword         = NewDomainError(CodeStalePassword, "User recently changed password! Please log in again.", http.StatusUnauthorized, nil)
	ErrAccountGone           = NewDomainError(CodeAccountGone, "The user belonging to this token does no longer exist.", http.StatusUnauthorized, nil)
	ErrForbidden             = NewDomainError(CodeForbidden, "You do not have permission to perform this action", http.StatusForbidden, nil)
	ErrAccountNotFound       = NewDomainError(CodeAccountNotFound, "There is no account with email address.", http.StatusNotFound, nil)
	ErrInvalidOrExpiredToken = NewDomainError(CodeInvalidOrExpiredToken, "Token is invalid or has expired", http.StatusBadRequest, nil)
	ErrWrongCurrentPassword  = NewDomainError(CodeWrongCurrentPassword, "Your current password is wrong.", http.StatusUnauthorized, nil)
	ErrDeliveryFailed        = NewDomainError(CodeDeliveryFailed, "There was an error sending the email. Try again later!", http.StatusInternalServerError, nil)
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// Wrap returns a copy of a sentinel carrying the underlying cause.
func Wrap(sentinel *DomainError, err error) error {
	cp := *sentinel
	cp.Err = err
	return &cp
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidationFailed
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	}
	if status >= 500 {
		return CodeInternal
	}
	return http.StatusText(status)
}
