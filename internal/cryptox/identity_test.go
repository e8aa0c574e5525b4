package cryptox

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/youmark/pkcs8"
)

var (
	fixtureOnce sync.Once
	fixtureKey  *rsa.PrivateKey
)

// identityKey returns a process-wide RSA key for fixtures; generating one
// per test would dominate the suite's runtime.
func identityKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	fixtureOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		fixtureKey = k
	})
	return fixtureKey
}

// encryptedBlob wraps priv into an encrypted PKCS#8 PEM container protected
// by password, the format the server stores for each account.
func encryptedBlob(t *testing.T, priv *rsa.PrivateKey, password []byte) []byte {
	t.Helper()
	der, err := pkcs8.MarshalPrivateKey(priv, password, pkcs8.DefaultOpts)
	if err != nil {
		t.Fatalf("marshal encrypted pkcs8: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der})
}

func TestUnlockPrivateKey_CorrectPassword(t *testing.T) {
	priv := identityKey(t)
	blob := encryptedBlob(t, priv, []byte("correct"))

	got, err := UnlockPrivateKey(blob, []byte("correct"))
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if got.D.Cmp(priv.D) != 0 {
		t.Errorf("unlocked key does not match original")
	}
}

func TestUnlockPrivateKey_WrongPassword(t *testing.T) {
	blob := encryptedBlob(t, identityKey(t), []byte("correct"))

	_, err := UnlockPrivateKey(blob, []byte("wrong"))
	if !errors.Is(err, common.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

func TestUnlockPrivateKey_CorruptContainer(t *testing.T) {
	cases := map[string][]byte{
		"not pem":        []byte("definitely not a pem container"),
		"wrong pem type": pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1, 2, 3}}),
		"garbage der":    pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: []byte{0xde, 0xad, 0xbe, 0xef}}),
		"empty":          nil,
	}

	for name, blob := range cases {
		if _, err := UnlockPrivateKey(blob, []byte("correct")); !errors.Is(err, common.ErrAuthentication) {
			t.Errorf("%s: expected ErrAuthentication, got %v", name, err)
		}
	}
}

func TestWrapUnwrapKey_RoundTrip(t *testing.T) {
	priv := identityKey(t)
	key := common.GenerateRandByteArray(common.SymmetricKeySize)

	wrapped, err := WrapKey(key, &priv.PublicKey)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}

	got, err := UnwrapKey(wrapped, priv)
	if err != nil {
		t.Fatalf("unwrap failed: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Errorf("unwrapped key differs from original")
	}
}

func TestUnwrapKey_WrongRecipient(t *testing.T) {
	priv := identityKey(t)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	wrapped, err := WrapKey(common.GenerateRandByteArray(common.SymmetricKeySize), &other.PublicKey)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}

	if _, err := UnwrapKey(wrapped, priv); !errors.Is(err, common.ErrKeyUnwrap) {
		t.Errorf("expected ErrKeyUnwrap, got %v", err)
	}
}

func TestUnwrapKey_Malformed(t *testing.T) {
	if _, err := UnwrapKey([]byte{1, 2, 3}, identityKey(t)); !errors.Is(err, common.ErrKeyUnwrap) {
		t.Errorf("expected ErrKeyUnwrap, got %v", err)
	}
}

func TestUnwrapKey_WrongKeySize(t *testing.T) {
	priv := identityKey(t)

	wrapped, err := WrapKey([]byte("only sixteen byte"), &priv.PublicKey)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}

	if _, err := UnwrapKey(wrapped, priv); !errors.Is(err, common.ErrKeyUnwrap) {
		t.Errorf("expected ErrKeyUnwrap for non-256-bit material, got %v", err)
	}
}

func TestDeriveSessionKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveSessionKey(password, salt)
	key2 := DeriveSessionKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	if bytes.Equal(key1, DeriveSessionKey(password, []byte("other-salt"))) {
		t.Errorf("expected different results for different salts, got same")
	}
}
