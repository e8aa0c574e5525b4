// Package client defines the collaborator interface to the ChatKeeper
// server and its HTTP implementation. The server only ever handles
// ciphertext: wrapped keys, encrypted private key blobs, and message
// envelopes.
package client

import (
	"context"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// Client is the request/response transport consumed by the services
// layer. All methods honor context cancellation.
type Client interface {
	Close() error

	// Login authenticates and primes the client with a bearer token.
	// The returned profile carries the account's encrypted private key
	// blob; the client never writes it back.
	Login(ctx context.Context, email string, password []byte) (*models.Profile, error)

	// Me returns the profile of the authenticated account.
	Me(ctx context.Context) (*models.Profile, error)

	// ListConversations returns the account's conversations.
	ListConversations(ctx context.Context) ([]models.Conversation, error)

	// FetchWrappedKey returns the conversation key wrapped for this
	// recipient. common.ErrNotFound if no key has been provisioned.
	FetchWrappedKey(ctx context.Context, conversationID string) (*models.WrappedConversationKey, error)

	// FetchMessages returns a bounded page ordered by server-assigned
	// sequence, newest first, offset counted from the newest message.
	FetchMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.EncryptedMessage, error)

	// SendMessage posts an envelope via the request/response path and
	// returns the stored message.
	SendMessage(ctx context.Context, conversationID string, envelope string) (*models.EncryptedMessage, error)

	// DeleteMessage removes a message from the remote store by id.
	DeleteMessage(ctx context.Context, id string) error

	// Logout discards the bearer token and account id.
	Logout()

	// Token returns the current bearer token ("" before login).
	Token() string

	// UserID returns the authenticated account id ("" before login).
	UserID() string
}
