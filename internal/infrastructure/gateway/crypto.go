package gateway

import (
	"bytes"
	"crypto/des" //nolint:gosec // provider contract mandates legacy 3DES
	"encoding/base64"
	"fmt"
)

// The provider contract mandates that the card payload block is encrypted
// with 3-key Triple DES in ECB mode, PKCS#5 padded and base64 encoded,
// using the provider-issued 24-byte encryption key. This is an externally
// imposed protocol requirement kept behind the client so it can be swapped
// when the contract changes.

const tripleDESKeySize = 24

// encryptCardPayload encrypts the serialized card block for transmission.
func encryptCardPayload(plaintext []byte, key string) (string, error) {
	if len(key) != tripleDESKeySize {
		return "", fmt.Errorf("encryption key must be %d bytes, got %d", tripleDESKeySize, len(key))
	}

	block, err := des.NewTripleDESCipher([]byte(key)) //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	bs := block.BlockSize()
	padLen := bs - len(plaintext)%bs
	padded := append(append([]byte{}, plaintext...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)

	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += bs {
		block.Encrypt(out[i:i+bs], padded[i:i+bs])
	}

	return base64.StdEncoding.EncodeToString(out), nil
}
