package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// MinKeySize is the minimum master key length in bytes.
	MinKeySize = 32

	keySize  = 32
	hkdfInfo = "saasadmin-secrets-v1"
)

// Config holds the master key. The value is either base64 of at least 32
// random bytes or a raw string of at least 32 bytes.
type Config struct {
	MasterKey string `env:"SECRETS_ENCRYPTION_KEY"`
}

// Service encrypts and decrypts strings.
type Service struct {
	aead cipher.AEAD
}

// New builds a Service from cfg. An empty key yields an unavailable service
// and no error.
func New(cfg Config) (*Service, error) {
	if cfg.MasterKey == "" {
		return &Service{}, nil
	}

	master, err := decodeKey(cfg.MasterKey)
	if err != nil {
		return nil, err
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}

	return &Service{aead: aead}, nil
}

// Available reports whether a master key is configured.
func (s *Service) Available() bool {
	return s != nil && s.aead != nil
}

// Encrypt returns base64(nonce || sealed plaintext).
func (s *Service) Encrypt(plaintext string) (string, error) {
	return s.EncryptWithAAD(plaintext, "")
}

// EncryptWithAAD seals plaintext bound to aad. The ciphertext only opens
// with the same aad, so a value copied under another owner fails to decrypt.
func (s *Service) EncryptWithAAD(plaintext, aad string) (string, error) {
	if !s.Available() {
		return "", ErrUnavailable
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), additionalData(aad))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered data or a different master key yields
// ErrDecryptionFailed.
func (s *Service) Decrypt(ciphertext string) (string, error) {
	return s.DecryptWithAAD(ciphertext, "")
}

// DecryptWithAAD reverses EncryptWithAAD. A mismatched aad yields
// ErrDecryptionFailed.
func (s *Service) DecryptWithAAD(ciphertext, aad string) (string, error) {
	if !s.Available() {
		return "", ErrUnavailable
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	n := s.aead.NonceSize()
	if len(raw) < n+s.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}

	plaintext, err := s.aead.Open(nil, raw[:n], raw[n:], additionalData(aad))
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

func additionalData(aad string) []byte {
	if aad == "" {
		return nil
	}
	return []byte(aad)
}

// GenerateKey returns a fresh base64 master key suitable for SECRETS_ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, MinKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func decodeKey(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) >= MinKeySize {
		return b, nil
	}
	if len(s) >= MinKeySize {
		return []byte(s), nil
	}
	return nil, ErrInvalidKey
}
