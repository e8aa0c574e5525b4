// Package services contains the application services of the ChatKeeper
// client: the identity session (unlock/lock of the private key), the
// conversation keyring (unwrap + session cache), and the sync engine.
package services

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/chatkeeper/internal/client/client"
	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/cryptox"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
)

// SessionService owns the unlocked identity private key for the lifetime
// of a session.
//
// Contract:
//   - Unlock: open the account's encrypted private key container with a
//     password. The password is used for the duration of the call only.
//   - Lock: drop the unlocked key but keep the session; Unlock reopens it.
//   - Logout: destroy all session state including the re-lock verifier.
//   - PrivateKey: the unlocked key, or nil while locked. Shared read-only.
type SessionService interface {
	Unlock(ctx context.Context, password []byte) error
	Lock()
	Logout()
	Unlocked() bool
	PrivateKey() *rsa.PrivateKey
	UserID() string
}

type sessionService struct {
	client client.Client
	log    logging.Logger

	mu       sync.RWMutex
	profile  *models.Profile
	priv     *rsa.PrivateKey
	salt     []byte
	verifier []byte
}

// NewSessionService constructs a SessionService bound to the given API
// client.
func NewSessionService(apiClient client.Client, log logging.Logger) SessionService {
	return &sessionService{client: apiClient, log: log}
}

// Unlock fetches the account profile if needed, opens the encrypted
// private key container, and installs the key in memory.
//
// After the first successful unlock the session keeps an argon2id
// verifier of the password, so re-opening a locked session rejects a
// wrong password before touching the container. Wrong password and
// corrupt container are both common.ErrAuthentication either way.
func (s *sessionService) Unlock(ctx context.Context, password []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		p, err := s.client.Me(ctx)
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		s.profile = p
	}

	if s.verifier != nil {
		candidate := cryptox.MakeVerifier(cryptox.DeriveSessionKey(password, s.salt))
		if subtle.ConstantTimeCompare(s.verifier, candidate) == 0 {
			return fmt.Errorf("session reopen: %w", common.ErrAuthentication)
		}
	}

	priv, err := cryptox.UnlockPrivateKey([]byte(s.profile.EncryptedPrivateKey), password)
	if err != nil {
		return err
	}

	if s.salt == nil {
		s.salt = common.GenerateRandByteArray(16)
	}
	s.verifier = cryptox.MakeVerifier(cryptox.DeriveSessionKey(password, s.salt))
	s.priv = priv

	s.log.Info(ctx, "identity unlocked")
	return nil
}

// Lock drops the unlocked private key. The session itself survives and
// can be reopened with the password.
func (s *sessionService) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priv = nil
}

// Logout destroys all session state.
func (s *sessionService) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.priv = nil
	s.profile = nil
	common.WipeByteArray(s.verifier)
	common.WipeByteArray(s.salt)
	s.verifier = nil
	s.salt = nil
}

func (s *sessionService) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.priv != nil
}

func (s *sessionService) PrivateKey() *rsa.PrivateKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.priv
}

func (s *sessionService) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.ID
}
