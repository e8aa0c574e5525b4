package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
)

var (
	identityOnce sync.Once
	identityRSA  *rsa.PrivateKey
)

// testIdentityKey returns a process-wide RSA key for fixtures; generating
// one per test would dominate the suite's runtime.
func testIdentityKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	identityOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		identityRSA = k
	})
	return identityRSA
}

// testProfile builds a profile whose private key container is protected
// by password.
func testProfile(t *testing.T, priv *rsa.PrivateKey, password []byte) *models.Profile {
	t.Helper()
	der, err := pkcs8.MarshalPrivateKey(priv, password, pkcs8.DefaultOpts)
	require.NoError(t, err)
	blob := pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der})
	return &models.Profile{
		ID:                  "user-1",
		Name:                "Test",
		EncryptedPrivateKey: string(blob),
	}
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(discardSlog())
}

func TestSession_UnlockCorrectPassword(t *testing.T) {
	priv := testIdentityKey(t)
	fc := newFakeClient()
	fc.MeProfile = testProfile(t, priv, []byte("pass"))

	s := NewSessionService(fc, testLogger())
	require.False(t, s.Unlocked())
	require.Nil(t, s.PrivateKey())

	require.NoError(t, s.Unlock(context.Background(), []byte("pass")))
	require.True(t, s.Unlocked())
	require.Equal(t, 0, s.PrivateKey().D.Cmp(priv.D))
	require.Equal(t, "user-1", s.UserID())
}

func TestSession_UnlockWrongPassword(t *testing.T) {
	fc := newFakeClient()
	fc.MeProfile = testProfile(t, testIdentityKey(t), []byte("pass"))

	s := NewSessionService(fc, testLogger())
	err := s.Unlock(context.Background(), []byte("nope"))
	require.ErrorIs(t, err, common.ErrAuthentication)
	require.False(t, s.Unlocked())
}

func TestSession_UnlockCorruptContainer(t *testing.T) {
	fc := newFakeClient()
	fc.MeProfile = &models.Profile{ID: "user-1", EncryptedPrivateKey: "not a pem blob"}

	s := NewSessionService(fc, testLogger())
	err := s.Unlock(context.Background(), []byte("pass"))
	require.ErrorIs(t, err, common.ErrAuthentication)
}

func TestSession_ProfileFetchedOnce(t *testing.T) {
	fc := newFakeClient()
	fc.MeProfile = testProfile(t, testIdentityKey(t), []byte("pass"))

	s := NewSessionService(fc, testLogger())
	require.NoError(t, s.Unlock(context.Background(), []byte("pass")))
	s.Lock()
	require.NoError(t, s.Unlock(context.Background(), []byte("pass")))
	require.Equal(t, 1, fc.MeCalls)
}

func TestSession_RelockVerifierRejectsWrongPassword(t *testing.T) {
	fc := newFakeClient()
	fc.MeProfile = testProfile(t, testIdentityKey(t), []byte("pass"))

	s := NewSessionService(fc, testLogger())
	require.NoError(t, s.Unlock(context.Background(), []byte("pass")))
	s.Lock()
	require.False(t, s.Unlocked())

	err := s.Unlock(context.Background(), []byte("wrong"))
	require.ErrorIs(t, err, common.ErrAuthentication)
	require.False(t, s.Unlocked())

	require.NoError(t, s.Unlock(context.Background(), []byte("pass")))
	require.True(t, s.Unlocked())
}

func TestSession_LogoutDestroysEverything(t *testing.T) {
	fc := newFakeClient()
	fc.MeProfile = testProfile(t, testIdentityKey(t), []byte("pass"))

	s := NewSessionService(fc, testLogger())
	require.NoError(t, s.Unlock(context.Background(), []byte("pass")))

	s.Logout()
	require.False(t, s.Unlocked())
	require.Nil(t, s.PrivateKey())
	require.Equal(t, "", s.UserID())

	// a fresh unlock re-fetches the profile
	require.NoError(t, s.Unlock(context.Background(), []byte("pass")))
	require.Equal(t, 2, fc.MeCalls)
}

func TestSession_UnlockFailsWhenProfileUnavailable(t *testing.T) {
	fc := newFakeClient()
	fc.MeErr = common.ErrUnauthorized

	s := NewSessionService(fc, testLogger())
	err := s.Unlock(context.Background(), []byte("pass"))
	require.ErrorIs(t, err, common.ErrUnauthorized)
}
