package application_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
)

func TestNormalizeEvidence(t *testing.T) {
	t.Run("webhook payload shape", func(t *testing.T) {
		payload := json.RawMessage(`{
			"event": "charge.completed",
			"data": {
				"id": 12345,
				"tx_ref": "SKB-REF-1",
				"flw_ref": "FLW-MOCK-1",
				"status": "successful",
				"amount": 6200,
				"currency": "NGN",
				"customer": {"email": "ada@example.com"},
				"meta": {"owner_id": "user-1"}
			}
		}`)

		ev, err := application.NormalizeEvidence(payload)

		require.NoError(t, err)
		assert.Equal(t, "SKB-REF-1", ev.Reference)
		assert.Equal(t, "12345", ev.TransactionID)
		assert.Equal(t, int64(6200), ev.Amount)
		assert.Equal(t, "NGN", ev.Currency)
		assert.Equal(t, "successful", ev.Status)
		assert.Equal(t, "ada@example.com", ev.CustomerEmail)
		assert.Equal(t, "user-1", ev.OwnerID)
	})

	t.Run("reference precedence prefers data.tx_ref", func(t *testing.T) {
		payload := json.RawMessage(`{
			"txRef": "TOP-LEVEL",
			"data": {"tx_ref": "SNAKE", "reference": "REF", "txRef": "CAMEL"}
		}`)

		ev, err := application.NormalizeEvidence(payload)
		require.NoError(t, err)
		assert.Equal(t, "SNAKE", ev.Reference)
	})

	t.Run("falls back to top-level txRef", func(t *testing.T) {
		payload := json.RawMessage(`{"txRef": "TOP-LEVEL", "data": {}}`)

		ev, err := application.NormalizeEvidence(payload)
		require.NoError(t, err)
		assert.Equal(t, "TOP-LEVEL", ev.Reference)
	})

	t.Run("transaction id precedence prefers data.id", func(t *testing.T) {
		payload := json.RawMessage(`{
			"id": 1,
			"data": {"id": 2, "transaction_id": "3", "tx_ref": "R", "tx": {"id": 4}}
		}`)

		ev, err := application.NormalizeEvidence(payload)
		require.NoError(t, err)
		assert.Equal(t, "2", ev.TransactionID)
	})

	t.Run("nested tx id as fallback", func(t *testing.T) {
		payload := json.RawMessage(`{"data": {"tx_ref": "R", "tx": {"id": 99}}}`)

		ev, err := application.NormalizeEvidence(payload)
		require.NoError(t, err)
		assert.Equal(t, "99", ev.TransactionID)
	})

	t.Run("missing reference fails evidence incomplete", func(t *testing.T) {
		payload := json.RawMessage(`{"data": {"id": 5, "status": "successful"}}`)

		_, err := application.NormalizeEvidence(payload)
		require.Error(t, err)
		assert.Equal(t, application.ErrCodeEvidenceIncomplete, application.ToErrorCode(err))
	})

	t.Run("malformed json fails evidence incomplete", func(t *testing.T) {
		_, err := application.NormalizeEvidence(json.RawMessage(`{not json`))
		require.Error(t, err)
		assert.Equal(t, application.ErrCodeEvidenceIncomplete, application.ToErrorCode(err))
	})

	t.Run("missing amount is tolerated", func(t *testing.T) {
		payload := json.RawMessage(`{"data": {"tx_ref": "R"}}`)

		ev, err := application.NormalizeEvidence(payload)
		require.NoError(t, err)
		assert.Zero(t, ev.Amount)
	})
}
