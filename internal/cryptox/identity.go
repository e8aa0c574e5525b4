package cryptox

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/pem"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/argon2"
)

// encryptedKeyPEMType is the PEM block type of an encrypted PKCS#8 container.
const encryptedKeyPEMType = "ENCRYPTED PRIVATE KEY"

// UnlockPrivateKey decrypts a password-protected identity key blob and
// returns the private key restricted to unwrap (decrypt) use by callers.
//
// The blob is an encrypted PKCS#8 PEM container; the KDF parameters
// (salt, iteration count, cipher) are embedded in the container itself.
// A wrong password and a corrupt container both return
// common.ErrAuthentication: the two cases are deliberately not
// distinguishable to the caller.
//
// The caller owns the returned key's lifecycle and must drop it on
// logout or identity switch. The password is not retained.
func UnlockPrivateKey(blobPEM []byte, password []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(blobPEM)
	if block == nil || block.Type != encryptedKeyPEMType {
		return nil, fmt.Errorf("identity container: %w", common.ErrAuthentication)
	}

	priv, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, password)
	if err != nil {
		return nil, fmt.Errorf("identity container: %w", common.ErrAuthentication)
	}

	return priv, nil
}

// DeriveSessionKey derives a 32-byte key from a password and salt using
// argon2id. Used only to produce an in-memory re-lock verifier; it never
// leaves the session.
func DeriveSessionKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns a comparison value for a derived session key.
func MakeVerifier(sessionKey []byte) []byte {
	hash := sha256.Sum256(sessionKey)
	return hash[:]
}
