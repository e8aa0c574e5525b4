// Package models defines the wire and in-memory types of the messaging
// client: encrypted messages as stored on the server, decrypted messages
// as shown to the UI, conversations, and key records.
package models

import "time"

// EncryptedMessage is the wire/storage form of a message. Content carries
// the base64 envelope (nonce || ciphertext+tag); the server never sees
// plaintext.
type EncryptedMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// PlaintextMessage is the in-memory, post-decrypt form. A message whose
// envelope failed authentication has DecryptOk=false and an empty Text;
// it must never be rendered as content, only hidden or shown as an
// explicit undecryptable placeholder.
type PlaintextMessage struct {
	ID             string
	ConversationID string
	SenderID       string
	Text           string
	Timestamp      time.Time
	DecryptOk      bool
}

// Conversation is a two-participant chat thread.
type Conversation struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participantIds"`
}

// WrappedConversationKey is a conversation's symmetric key encrypted under
// one recipient's public key. One record exists per (conversation,
// recipient) pair; the server is the source of truth.
type WrappedConversationKey struct {
	ConversationID string `json:"conversationId"`
	WrappedKey     []byte `json:"wrappedKey"`
}

// Profile is the active account as reported by the server. The encrypted
// private key blob is opaque to everything except the identity unlock.
type Profile struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	PublicKeyPEM        string `json:"publicKey"`
	EncryptedPrivateKey string `json:"privateKey"`
}
