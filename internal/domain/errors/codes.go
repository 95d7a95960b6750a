package errors

import "net/http"

// Wire-level error codes. These are part of the external contract with the
// payment processor and must stay stable.
const (
	CodeInvalidInput        = "invalid_input"
	CodeInvalidSubscription = "invalid_subscription"
	CodeAmountMismatch      = "amount_mismatch"
	CodeUnauthorized        = "unauthorized"
	CodeDuplicateTxn        = "duplicate_transaction"
	CodeUpstreamFailure     = "upstream_failure"
	CodeNotFound            = "not_found"
	CodeInternal            = "internal_error"
)

// ToHTTPStatus maps a wire code onto the HTTP status class the processor
// expects for it.
func ToHTTPStatus(code string) int {
	switch code {
	case CodeInvalidInput, CodeInvalidSubscription, CodeAmountMismatch:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeDuplicateTxn:
		return http.StatusConflict
	case CodeUpstreamFailure:
		return http.StatusBadGateway
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
