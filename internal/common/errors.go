// Package common defines shared constants and sentinel errors used across
// the ChatKeeper client layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Crypto errors.

	// ErrAuthentication is returned when an identity key container cannot be
	// opened: wrong password and corrupt container are deliberately
	// indistinguishable to avoid a blob-validity oracle.
	ErrAuthentication = errors.New("authentication failed")

	// ErrKeyUnwrap is returned when a wrapped conversation key cannot be
	// recovered (malformed ciphertext, wrong recipient, rotated key).
	ErrKeyUnwrap = errors.New("key unwrap failed")

	// ErrIntegrity is returned when a single message envelope fails
	// authentication. The message is unreadable; siblings are unaffected.
	ErrIntegrity = errors.New("message integrity check failed")

	// Transport errors.
	ErrTransport    = errors.New("transport error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
