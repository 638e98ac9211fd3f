// Package application holds the orchestration ports, commands and error
// taxonomy shared by the services and the infrastructure adapters.
package application

import (
	"context"
	"encoding/json"
)

// ChargeOutcome is the coarse result of a charge or challenge submission.
type ChargeOutcome string

const (
	ChargeSuccessful        ChargeOutcome = "successful"
	ChargeRequiresChallenge ChargeOutcome = "requires_challenge"
	ChargeFailed            ChargeOutcome = "failed"
)

// ChallengeMode identifies the secondary authentication step the provider
// demands before a charge is finalized.
type ChallengeMode string

const (
	ChallengePIN  ChallengeMode = "pin"
	ChallengeAVS  ChallengeMode = "avs"
	ChallengeOTP  ChallengeMode = "otp"
	Challenge3DS  ChallengeMode = "3ds"
	ChallengeNone ChallengeMode = ""
)

// CardCharge is the outbound charge request. Reference is the merchant
// payment reference threaded through the whole flow. Card fields never
// appear in logs.
type CardCharge struct {
	Reference   string
	Amount      int64
	Currency    string
	Email       string
	CardNumber  string
	CVV         string
	ExpiryMonth string
	ExpiryYear  string

	// Challenge answers, filled on resubmission only.
	PIN            string
	BillingZip     string
	BillingCity    string
	BillingAddress string
	BillingState   string
	BillingCountry string
}

// ChallengeAnswer carries the client's answer to a PIN or AVS challenge.
type ChallengeAnswer struct {
	PIN            string
	BillingZip     string
	BillingCity    string
	BillingAddress string
	BillingState   string
	BillingCountry string
}

// ChargeResult is the normalized provider response for charge, challenge
// resubmission and OTP validation calls.
type ChargeResult struct {
	Outcome        ChargeOutcome
	Amount         int64
	Currency       string
	TransactionID  string
	ChallengeMode  ChallengeMode
	ChallengeToken string
	AuthURL        string // populated for 3ds redirects
	Message        string
	Raw            json.RawMessage
}

// VerificationResult is the provider's current word on a transaction. Status
// carries the raw provider status; a transaction that is neither Successful
// nor Failed is still in flight and may confirm later.
type VerificationResult struct {
	Successful    bool
	Status        string
	Amount        int64
	Currency      string
	TransactionID string
	Reference     string
	CustomerEmail string
	Message       string
	Raw           json.RawMessage
}

// Failed reports whether the provider reached a terminal unsuccessful state.
func (v *VerificationResult) Failed() bool {
	switch v.Status {
	case "failed", "cancelled", "abandoned":
		return true
	}
	return false
}

// RefundCallResult is the provider response to a refund request or a refund
// status poll.
type RefundCallResult struct {
	Completed        bool
	Failed           bool
	ProviderRefundID string
	Amount           int64
	Message          string
	Raw              json.RawMessage
}

// GatewayClient is the port for the external payment provider. All calls
// carry a bounded timeout and block on network I/O; callers must not hold a
// database transaction open across them.
type GatewayClient interface {
	Charge(ctx context.Context, req CardCharge) (*ChargeResult, error)
	SubmitChallenge(ctx context.Context, req CardCharge, answer ChallengeAnswer) (*ChargeResult, error)
	ValidateOTP(ctx context.Context, otp, challengeToken string) (*ChargeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerificationResult, error)
	Refund(ctx context.Context, transactionID string, amount int64, reason string) (*RefundCallResult, error)
	GetRefundStatus(ctx context.Context, providerRefundID string) (*RefundCallResult, error)
}
