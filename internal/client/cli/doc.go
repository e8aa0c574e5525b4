// Package cli provides the interactive ChatKeeper command-line client.
//
// It wires configuration, the local ciphertext cache, the API client, the
// identity session, and the message sync engine behind an interactive REPL.
// Typical flow: prompt for credentials, unlock the private key, pick a
// conversation, and chat.
//
// Key features:
//   - Login / Logout and identity unlock / lock
//   - List and open conversations
//   - Send, page back through, and delete messages
//   - Live updates over the stream channel while a conversation is open
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
