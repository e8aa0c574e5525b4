// Package messages implements the local cache of encrypted messages.
// Only ciphertext envelopes are stored; the cache allows re-reading
// already-fetched history while offline.
package messages

import (
	"context"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// Repository describes the cache operations used by the sync engine.
type Repository interface {
	// Upsert inserts or replaces a message by id.
	Upsert(ctx context.Context, m *models.EncryptedMessage) error

	// UpsertBatch stores a whole page atomically.
	UpsertBatch(ctx context.Context, msgs []models.EncryptedMessage) error

	// GetByConversation returns up to limit newest messages of a
	// conversation, newest first (matching the server's page order).
	GetByConversation(ctx context.Context, conversationID string, limit int) ([]models.EncryptedMessage, error)

	// DeleteByID removes a cached message.
	DeleteByID(ctx context.Context, id string) error

	// PurgeConversation drops everything cached for a conversation.
	PurgeConversation(ctx context.Context, conversationID string) error
}
