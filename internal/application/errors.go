package application

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is an orchestration-level error carrying a stable code and
// the HTTP status the REST layer should answer with.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeGatewayUnreachable   = "GATEWAY_UNREACHABLE"
	ErrCodeDeclined             = "DECLINED"
	ErrCodeNotConfirmed         = "PAYMENT_NOT_CONFIRMED"
	ErrCodeUnresolvableOwner    = "UNRESOLVABLE_OWNER"
	ErrCodeExceedsRefundable    = "EXCEEDS_REFUNDABLE"
	ErrCodeSignatureInvalid     = "SIGNATURE_INVALID"
	ErrCodeEvidenceIncomplete   = "EVIDENCE_INCOMPLETE"
	ErrCodePendingIntentExpired = "PENDING_INTENT_EXPIRED"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewGatewayUnreachableError marks a transient transport failure; the caller
// may retry. The underlying cause is logged server-side only.
func NewGatewayUnreachableError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeGatewayUnreachable,
		Message:    "We couldn't confirm payment yet. Please retry in a moment.",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewNotConfirmedError reports that the provider has not reached a terminal
// status for the payment yet. Unlike a decline this is retryable and must not
// retire the checkout session.
func NewNotConfirmedError(reference, status string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotConfirmed,
		Message:    "Payment is still processing. Please retry in a moment.",
		HTTPStatus: http.StatusConflict,
		Err:        fmt.Errorf("provider reports %q for %s", status, reference),
	}
}

// NewDeclinedError surfaces a terminal provider rejection with a reason from
// the fixed decline taxonomy.
func NewDeclinedError(reason string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeDeclined,
		Message:    fmt.Sprintf("Payment was declined: %s", reason),
		HTTPStatus: http.StatusPaymentRequired,
		Err:        err,
	}
}

func NewUnresolvableOwnerError(reference string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnresolvableOwner,
		Message:    fmt.Sprintf("no owner could be resolved for payment %s; queued for manual reconciliation", reference),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func NewExceedsRefundableError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeExceedsRefundable,
		Message:    "Requested amount exceeds the refundable balance",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewEvidenceIncompleteError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeEvidenceIncomplete,
		Message:    "Payment evidence is missing required fields",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewPendingIntentExpiredError rejects a charge attempt against an intent
// whose TTL elapsed before payment was confirmed.
func NewPendingIntentExpiredError(reference string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodePendingIntentExpired,
		Message:    fmt.Sprintf("Checkout session %s has expired, start again", reference),
		HTTPStatus: http.StatusConflict,
	}
}

// NewSignatureInvalidError rejects a callback without leaking which check
// failed.
func NewSignatureInvalidError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeSignatureInvalid,
		Message:    "Invalid request",
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewConflictError(msg string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

func NewNotFoundError(msg string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    msg,
		HTTPStatus: http.StatusNotFound,
	}
}

func NewInvalidInputError(msg string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewInvalidStateError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidState,
		Message:    "Invalid state",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsServiceError unwraps err into a *ServiceError if one is present.
func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// ToHTTPStatus maps any error to the status the REST layer should answer
// with. Unrecognized errors become 500.
func ToHTTPStatus(err error) int {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// ToErrorCode maps any error to its stable error code.
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}
	return ErrCodeInternal
}
