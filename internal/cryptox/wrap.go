package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

// UnwrapKey recovers a conversation's symmetric key from its RSA-OAEP
// wrapped form using the unlocked identity private key.
//
// Failure (malformed ciphertext, a record wrapped for a different
// recipient, or key material of the wrong size) is reported as
// common.ErrKeyUnwrap.
func UnwrapKey(wrapped []byte, priv *rsa.PrivateKey) ([]byte, error) {
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("oaep decrypt: %w", common.ErrKeyUnwrap)
	}

	if len(key) != common.SymmetricKeySize {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("unwrapped key size %d: %w", len(key), common.ErrKeyUnwrap)
	}

	return key, nil
}

// WrapKey encrypts raw symmetric key material under a recipient's public
// key with RSA-OAEP. The counterpart of UnwrapKey; used when provisioning
// a conversation key for a peer.
func WrapKey(key []byte, pub *rsa.PublicKey) ([]byte, error) {
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return nil, fmt.Errorf("oaep encrypt: %w", err)
	}
	return wrapped, nil
}
