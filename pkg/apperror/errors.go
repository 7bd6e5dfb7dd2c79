package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses. Provider-facing
// errors preserve the original provider code and message for audit and
// merchant support.
type AppError struct {
	Code            string `json:"error_code"`
	Message         string `json:"message"`
	HTTPStatus      int    `json:"-"`
	Retryable       bool   `json:"retryable"`
	ProviderCode    string `json:"provider_code,omitempty"`
	ProviderMessage string `json:"provider_message,omitempty"`
	Err             error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a 400-equivalent error for malformed input. Never retried.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Conflict (CON) ----

// ErrActiveLinkExists reports a duplicate active link for a mobile number.
func ErrActiveLinkExists() *AppError {
	return New("CON_001", "An active wallet link already exists for this mobile number", http.StatusConflict)
}

// ErrDuplicateOrder reports a merchant order id that is already taken.
func ErrDuplicateOrder(orderID string) *AppError {
	return New("CON_002", fmt.Sprintf("Order %q has already been processed", orderID), http.StatusConflict)
}

// Conflict returns a generic 409-equivalent invariant violation.
func Conflict(message string) *AppError {
	return New("CON_003", message, http.StatusConflict)
}

// ---- Not found (RES) ----

func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Provider rejection (PRV) ----

// ProviderRejection reports a non-success response code from the wallet
// provider, carrying the provider's code/message and the retryable flag
// from the static code table.
func ProviderRejection(httpStatus int, message, providerCode, providerMessage string, retryable bool) *AppError {
	return &AppError{
		Code:            "PRV_001",
		Message:         message,
		HTTPStatus:      httpStatus,
		Retryable:       retryable,
		ProviderCode:    providerCode,
		ProviderMessage: providerMessage,
	}
}

// IsProviderRejection reports whether err is a provider-rejection error, as
// opposed to a transport or internal failure.
func IsProviderRejection(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == "PRV_001"
}

// ---- Transport (NET) ----

// ErrProviderUnavailable reports a connection-level failure reaching the
// provider. Always retryable by the caller.
func ErrProviderUnavailable(err error) *AppError {
	return &AppError{
		Code:       "NET_001",
		Message:    "Wallet provider service unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Err:        err,
	}
}

// ErrProviderTimeout reports a timed-out provider call. Always retryable by
// the caller; the provider-side outcome is unknown.
func ErrProviderTimeout(err error) *AppError {
	return &AppError{
		Code:       "NET_002",
		Message:    "Request to wallet provider timed out",
		HTTPStatus: http.StatusGatewayTimeout,
		Retryable:  true,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidAPIKey() *AppError {
	return New("AUTH_001", "Invalid API key", http.StatusUnauthorized)
}

func ErrMerchantInactive() *AppError {
	return New("AUTH_002", "Merchant account is not active", http.StatusForbidden)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & configuration (SYS) ----

// FatalConfig reports unusable configuration discovered at boot, such as a
// missing or unreadable signing key. The process must not start.
func FatalConfig(message string, err error) *AppError {
	return Wrap("SYS_001", message, http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a 500-equivalent.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}
