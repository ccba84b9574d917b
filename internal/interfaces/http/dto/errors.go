package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain errors carry their own codes and
// are passed through unchanged.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION"
	// ErrCodeUnauthorized is used when tenant identification is missing
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,

	// Resource errors
	"NOT_FOUND":                 http.StatusNotFound,
	"ALREADY_EXISTS":            http.StatusConflict,
	"CONCURRENCY_CONFLICT":      http.StatusConflict,
	"PAYMENT_ALREADY_PROCESSED": http.StatusConflict,
	"TENANT_MISMATCH":           http.StatusForbidden,

	// Gateway errors
	"GATEWAY_DECLINED":    http.StatusPaymentRequired,
	"GATEWAY_UNAVAILABLE": http.StatusBadGateway,

	// State machine and business rule violations
	"INVALID_STATE":               http.StatusUnprocessableEntity,
	"INVALID_ORDER_STATE":         http.StatusUnprocessableEntity,
	"INVALID_INVOICE_STATE":       http.StatusUnprocessableEntity,
	"INVALID_PAYMENT_TRANSITION":  http.StatusUnprocessableEntity,
	"FINANCIAL_ORDER_LOCKED":      http.StatusUnprocessableEntity,
	"INVOICE_LOCKED":              http.StatusUnprocessableEntity,
	"INVOICE_NOT_ISSUED":          http.StatusUnprocessableEntity,
	"INVOICE_HAS_PAYMENTS":        http.StatusUnprocessableEntity,
	"INVOICE_HAS_NO_LINES":        http.StatusUnprocessableEntity,
	"ORDER_HAS_NO_ITEMS":          http.StatusUnprocessableEntity,
	"OVERPAYMENT":                 http.StatusUnprocessableEntity,
	"REFUND_EXCEEDS_TOTAL":        http.StatusUnprocessableEntity,
	"REFUND_NOT_POSITIVE":         http.StatusUnprocessableEntity,
	"CREDIT_EXCEEDS_BALANCE":      http.StatusUnprocessableEntity,
	"PAYMENT_NOT_REFUNDABLE":      http.StatusUnprocessableEntity,
	"PROVIDER_PAYMENT_MISMATCH":   http.StatusUnprocessableEntity,
	"UNBALANCED_TRANSACTION":      http.StatusUnprocessableEntity,
	"EMPTY_TRANSACTION":           http.StatusUnprocessableEntity,
	"MIXED_ENTRY_CURRENCY":        http.StatusUnprocessableEntity,
	"ORDER_CURRENCY_MISMATCH":     http.StatusUnprocessableEntity,
	"INVOICE_CURRENCY_MISMATCH":   http.StatusUnprocessableEntity,
	"INACTIVE_ACCOUNT":            http.StatusUnprocessableEntity,
	"UNKNOWN_ACCOUNT":             http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code. Unmapped
// INVALID_* codes are treated as input validation failures; anything else
// unknown is an internal error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
