package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGatewayUnreachable marks transport failures (network, timeout) that the
// caller may safely retry. Provider business rejections never carry it.
var ErrGatewayUnreachable = errors.New("payment gateway unreachable")

// DeclineReason is the fixed taxonomy provider rejection strings are
// translated into. Callers never see raw provider text.
type DeclineReason string

const (
	DeclineInsufficientFunds DeclineReason = "insufficient_funds"
	DeclineCardExpired       DeclineReason = "card_expired"
	DeclineInvalidCard       DeclineReason = "invalid_card"
	DeclineFraudSuspected    DeclineReason = "fraud_suspected"
	DeclineDoNotHonor        DeclineReason = "do_not_honor"
	DeclineGeneric           DeclineReason = "card_declined"
)

// GatewayError is a provider-returned business rejection. It is terminal and
// must not be retried.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
	Decline    DeclineReason
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}

// classifyDecline maps provider rejection strings onto the decline taxonomy.
// Matching is on well-known substrings since the provider wording drifts.
func classifyDecline(code, message string) DeclineReason {
	text := strings.ToLower(code + " " + message)

	switch {
	case strings.Contains(text, "insufficient"):
		return DeclineInsufficientFunds
	case strings.Contains(text, "expired"):
		return DeclineCardExpired
	case strings.Contains(text, "invalid card"),
		strings.Contains(text, "incorrect card"),
		strings.Contains(text, "invalid pan"),
		strings.Contains(text, "invalid cvv"):
		return DeclineInvalidCard
	case strings.Contains(text, "fraud"),
		strings.Contains(text, "suspicious"),
		strings.Contains(text, "blocked"):
		return DeclineFraudSuspected
	case strings.Contains(text, "do not honor"),
		strings.Contains(text, "do not honour"):
		return DeclineDoNotHonor
	default:
		return DeclineGeneric
	}
}
