package common

// AuthHeaderName is the HTTP header used to carry the bearer token
// on outbound requests.
const AuthHeaderName = "Authorization"

// SymmetricKeySize is the size in bytes of a conversation key (AES-256).
const SymmetricKeySize = 32
