package dto

import (
	"net/http"
	"strings"
)

// Error codes returned in the error envelope. Domain errors pass their own
// code through unchanged; these cover the codes raised by the HTTP layer
// itself and the ones with a dedicated status.

// General error codes
const (
	ErrCodeInternal = "INTERNAL_ERROR"
	ErrCodeUnknown  = "UNKNOWN_ERROR"
)

// Input error codes
const (
	// ErrCodeInvalidInput is returned for validation failures
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeBadRequest is used for malformed requests (bad JSON, bad ids)
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeRequestTooLarge   = "REQUEST_TOO_LARGE"
	ErrCodeFileTooLarge      = "FILE_TOO_LARGE"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeTokenRevoked       = "TOKEN_REVOKED"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeAccountLocked      = "ACCOUNT_LOCKED"
	ErrCodeAccountPending     = "ACCOUNT_PENDING"
	ErrCodeAccountSuspended   = "ACCOUNT_SUSPENDED"
	// ErrCodeCrossSite is returned when a mutating request comes from another site
	ErrCodeCrossSite = "CROSS_SITE_REQUEST"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeUnknown:  http.StatusInternalServerError,

	ErrCodeInvalidInput:      http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeRequestTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeFileTooLarge:      http.StatusRequestEntityTooLarge,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
	"INVALID_STATUS":         http.StatusUnprocessableEntity,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	"TOKEN_ERROR":             http.StatusUnauthorized,
	ErrCodeSessionExpired:     http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeCrossSite:          http.StatusForbidden,
	ErrCodeAccountLocked:      http.StatusLocked,
	ErrCodeAccountPending:     http.StatusForbidden,
	ErrCodeAccountSuspended:   http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeRateLimited: http.StatusTooManyRequests,

	"STORAGE_ERROR":       http.StatusBadGateway,
	"PASSWORD_HASH_ERROR": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes without an entry fall back on their prefix: INVALID_* is a bad
// request and ALREADY_* a conflict. Anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "ALREADY_"):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// IsServerError reports whether the code maps to a 5xx status
func IsServerError(code string) bool {
	return GetHTTPStatus(code) >= http.StatusInternalServerError
}
