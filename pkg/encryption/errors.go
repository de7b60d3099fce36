package encryption

import "errors"

var (
	ErrUnavailable         = errors.New("encryption is not configured")
	ErrInvalidKey          = errors.New("invalid master key: need at least 32 bytes")
	ErrKeyDerivationFailed = errors.New("key derivation failed")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrInvalidCiphertext   = errors.New("invalid ciphertext format")
)
