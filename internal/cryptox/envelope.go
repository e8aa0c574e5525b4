// Package cryptox implements the cryptographic core of the ChatKeeper
// client: the authenticated message envelope codec, password-based unlock
// of the identity private key, and RSA-OAEP wrapping/unwrapping of
// conversation keys.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

// NonceSize is the AES-GCM nonce length in bytes.
const NonceSize = 12

// EncryptMessage encrypts plaintext with AES-256-GCM under key and returns
// the envelope as base64(nonce || ciphertext+tag).
//
// A fresh random 12-byte nonce is generated on every call; nonce reuse
// under the same key is forbidden, so envelopes for identical plaintexts
// never repeat. The key must be 32 bytes.
func EncryptMessage(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("gcm init: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce generation: %w", err)
	}

	// nonce is prepended so the envelope is self-contained
	sealed := aesgcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptMessage opens an envelope produced by EncryptMessage and returns
// the plaintext.
//
// Any failure, whether malformed base64, a buffer shorter than the nonce,
// or GCM authentication failure on tampered data or a wrong key, is reported as
// common.ErrIntegrity. Callers treat that as "this single message is
// unreadable" and continue with the rest.
func DecryptMessage(envelope string, key []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("envelope encoding: %w", common.ErrIntegrity)
	}

	if len(raw) < NonceSize {
		return "", fmt.Errorf("envelope too short: %w", common.ErrIntegrity)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", common.ErrIntegrity)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("gcm init: %w", common.ErrIntegrity)
	}

	nonce, ciphertext := raw[:NonceSize], raw[NonceSize:]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("envelope authentication: %w", common.ErrIntegrity)
	}

	return string(plaintext), nil
}
