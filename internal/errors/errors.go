package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is lets a wrapped error match its predefined sentinel by code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// User errors
	ErrUserNotFound = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrUserExists   = NewDomainError("USER_EXISTS", "user already exists with this email or username")

	// Credential errors
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "invalid password")
	ErrIncorrectPassword  = NewDomainError("INCORRECT_PASSWORD", "current password is incorrect")

	// Token errors
	ErrUnauthorized  = NewDomainError("UNAUTHORIZED", "unauthorized access")
	ErrInvalidToken  = NewDomainError("INVALID_TOKEN", "invalid or expired token")
	ErrTokenReplayed = NewDomainError("TOKEN_REPLAYED", "refresh token is expired or already used")

	// Validation errors
	ErrAllFieldsRequired = NewDomainError("FIELDS_REQUIRED", "all fields are required")
	ErrAvatarRequired    = NewDomainError("AVATAR_REQUIRED", "avatar image is required")
	ErrUploadFailed      = NewDomainError("UPLOAD_FAILED", "image upload failed")

	// System errors
	ErrTokenIssuance      = NewDomainError("TOKEN_ISSUANCE_FAILED", "token generation failed")
	ErrRegistrationFailed = NewDomainError("REGISTRATION_FAILED", "user registration failed")
	ErrInternal           = NewDomainError("INTERNAL_ERROR", "internal server error")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "FIELDS_REQUIRED", "AVATAR_REQUIRED", "UPLOAD_FAILED":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "INCORRECT_PASSWORD",
		"INVALID_TOKEN", "TOKEN_REPLAYED":
		return http.StatusUnauthorized

	// 404 Not Found
	case "USER_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "USER_EXISTS":
		return http.StatusConflict

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts the client-facing error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
