package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/chatkeeper/internal/client/client"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/cryptox"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
)

// Keyring recovers and caches conversation symmetric keys for the
// session. Keys are cached in memory only, shared read-only after
// creation, and never persisted.
type Keyring interface {
	// ConversationKey returns the symmetric key of a conversation,
	// fetching and unwrapping the wrapped record on a cache miss.
	// common.ErrNotFound if no key is provisioned for this recipient,
	// common.ErrKeyUnwrap if the record cannot be decrypted,
	// common.ErrAuthentication if the session is locked.
	ConversationKey(ctx context.Context, conversationID string) ([]byte, error)

	// Forget wipes one conversation's cached key (conversation switch).
	Forget(conversationID string)

	// Reset wipes the whole cache (logout).
	Reset()
}

type keyring struct {
	client  client.Client
	session SessionService
	log     logging.Logger

	mu   sync.Mutex
	keys map[string][]byte
}

// NewKeyring constructs a Keyring over the given transport and session.
func NewKeyring(apiClient client.Client, session SessionService, log logging.Logger) Keyring {
	return &keyring{
		client:  apiClient,
		session: session,
		log:     log,
		keys:    make(map[string][]byte),
	}
}

func (k *keyring) ConversationKey(ctx context.Context, conversationID string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if key, ok := k.keys[conversationID]; ok {
		return key, nil
	}

	priv := k.session.PrivateKey()
	if priv == nil {
		return nil, fmt.Errorf("session locked: %w", common.ErrAuthentication)
	}

	record, err := k.client.FetchWrappedKey(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetch wrapped key: %w", err)
	}

	key, err := cryptox.UnwrapKey(record.WrappedKey, priv)
	if err != nil {
		return nil, err
	}

	k.keys[conversationID] = key
	k.log.Debug(ctx, "conversation key unwrapped", "conversation", conversationID)
	return key, nil
}

func (k *keyring) Forget(conversationID string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if key, ok := k.keys[conversationID]; ok {
		common.WipeByteArray(key)
		delete(k.keys, conversationID)
	}
}

func (k *keyring) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for id, key := range k.keys {
		common.WipeByteArray(key)
		delete(k.keys, id)
	}
}
