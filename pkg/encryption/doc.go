// Package encryption seals short secrets (API tokens, client credentials)
// before they reach the datastore.
//
// The service derives an AES-256 key from the configured master key with
// HKDF-SHA256 and encrypts with AES-GCM. Ciphertext is the random nonce
// followed by the sealed data, base64 encoded.
//
// A service built without a master key is valid but unavailable: Available
// reports false and Encrypt/Decrypt return ErrUnavailable. Callers check
// Available up front so nothing is written in that state.
package encryption
