package application

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PaymentEvidence is the normalized proof of a confirmed charge, assembled
// from a webhook payload, a verification response or a direct charge result.
type PaymentEvidence struct {
	Reference     string
	TransactionID string
	Amount        int64
	Currency      string
	Status        string
	CustomerEmail string
	OwnerID       string
	Raw           json.RawMessage
}

var errNoReference = errors.New("payload carries no payment reference")

// rawEvidence mirrors every shape the provider has been observed to nest
// ids and references under. Normalization resolves them with a fixed
// precedence instead of per-call guessing:
//
//	reference:      data.tx_ref > data.reference > data.txRef > top-level txRef
//	transaction id: data.id > data.transaction_id > data.tx.id > top-level id
type rawEvidence struct {
	TxRef string      `json:"txRef"`
	ID    json.Number `json:"id"`
	Data  struct {
		ID            json.Number `json:"id"`
		TransactionID string      `json:"transaction_id"`
		Reference     string      `json:"reference"`
		TxRefSnake    string      `json:"tx_ref"`
		TxRefCamel    string      `json:"txRef"`
		FlwRef        string      `json:"flw_ref"`
		Status        string      `json:"status"`
		Amount        json.Number `json:"amount"`
		Currency      string      `json:"currency"`
		Meta          struct {
			OwnerID string `json:"owner_id"`
		} `json:"meta"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
		Tx struct {
			ID json.Number `json:"id"`
		} `json:"tx"`
	} `json:"data"`
}

// NormalizeEvidence extracts payment evidence from a raw provider payload.
// It fails with an evidence-incomplete error when no reference can be found;
// a missing amount or email is tolerated since later steps have fallbacks.
func NormalizeEvidence(raw json.RawMessage) (PaymentEvidence, error) {
	var p rawEvidence
	if err := json.Unmarshal(raw, &p); err != nil {
		return PaymentEvidence{}, NewEvidenceIncompleteError(fmt.Errorf("decode payload: %w", err))
	}

	ev := PaymentEvidence{
		Reference:     firstNonEmpty(p.Data.TxRefSnake, p.Data.Reference, p.Data.TxRefCamel, p.TxRef),
		TransactionID: firstNonEmpty(p.Data.ID.String(), p.Data.TransactionID, p.Data.Tx.ID.String(), p.ID.String()),
		Status:        p.Data.Status,
		Currency:      p.Data.Currency,
		CustomerEmail: p.Data.Customer.Email,
		OwnerID:       p.Data.Meta.OwnerID,
		Raw:           raw,
	}

	if p.Data.Amount != "" {
		amt, err := amountToMinorUnits(p.Data.Amount)
		if err != nil {
			return PaymentEvidence{}, NewEvidenceIncompleteError(fmt.Errorf("parse amount %q: %w", p.Data.Amount, err))
		}
		ev.Amount = amt
	}

	if ev.Reference == "" {
		return PaymentEvidence{}, NewEvidenceIncompleteError(errNoReference)
	}

	return ev, nil
}

// EvidenceFromVerification builds evidence from a provider verification
// response.
func EvidenceFromVerification(v *VerificationResult) PaymentEvidence {
	return PaymentEvidence{
		Reference:     v.Reference,
		TransactionID: v.TransactionID,
		Amount:        v.Amount,
		Currency:      v.Currency,
		Status:        "successful",
		CustomerEmail: v.CustomerEmail,
		Raw:           v.Raw,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// amountToMinorUnits accepts integral and decimal provider amounts. Amounts
// are carried in minor units end to end, on the wire included, so a
// fractional amount is unexpected and truncated toward zero.
func amountToMinorUnits(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
