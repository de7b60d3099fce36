package secrets

import "errors"

var (
	ErrEncryptionUnavailable = errors.New("encryption service is not available")
	ErrEncryption            = errors.New("failed to encrypt secret")
	ErrDecryption            = errors.New("failed to decrypt secret")
	ErrSecretNotFound        = errors.New("secret not found")
	ErrInvalidSecret         = errors.New("invalid secret")
)
