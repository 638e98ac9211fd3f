package gateway

import (
	"crypto/des"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decryptCardPayload reverses encryptCardPayload so tests can assert on the
// cleartext that actually went over the wire.
func decryptCardPayload(encoded, key string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	block, err := des.NewTripleDESCipher([]byte(key))
	if err != nil {
		return nil, err
	}

	bs := block.BlockSize()
	if len(raw) == 0 || len(raw)%bs != 0 {
		return nil, fmt.Errorf("ciphertext length %d not a block multiple", len(raw))
	}

	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i += bs {
		block.Decrypt(out[i:i+bs], raw[i:i+bs])
	}

	padLen := int(out[len(out)-1])
	if padLen < 1 || padLen > bs {
		return nil, fmt.Errorf("invalid padding %d", padLen)
	}
	return out[:len(out)-padLen], nil
}

func TestEncryptCardPayload_RoundTrip(t *testing.T) {
	plaintext := []byte(`{"card_number":"5531886652142950","cvv":"564"}`)

	encoded, err := encryptCardPayload(plaintext, testEncryptionKey)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "5531886652142950")

	decrypted, err := decryptCardPayload(encoded, testEncryptionKey)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptCardPayload_PadsBlockAlignedInput(t *testing.T) {
	// Exactly one block of input still gets a full block of padding.
	plaintext := []byte("12345678")

	encoded, err := encryptCardPayload(plaintext, testEncryptionKey)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, 16, len(raw))

	decrypted, err := decryptCardPayload(encoded, testEncryptionKey)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptCardPayload_RejectsBadKeyLength(t *testing.T) {
	_, err := encryptCardPayload([]byte("data"), "short-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "24 bytes")
}

func TestEncryptCardPayload_Deterministic(t *testing.T) {
	// ECB mode has no IV, so identical input must produce identical output.
	// The provider relies on this for their own test vectors.
	a, err := encryptCardPayload([]byte("same input"), testEncryptionKey)
	require.NoError(t, err)
	b, err := encryptCardPayload([]byte("same input"), testEncryptionKey)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
