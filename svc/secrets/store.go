package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/saasadmin/pkg/docstore"
	"github.com/dmitrymomot/saasadmin/pkg/logger"
	"github.com/dmitrymomot/saasadmin/pkg/tenant"
)

// Collection is the stored collection name.
const Collection = "secrets"

// Cipher encrypts tokens at the storage edge.
type Cipher interface {
	Available() bool
	EncryptWithAAD(plaintext, aad string) (string, error)
	DecryptWithAAD(ciphertext, aad string) (string, error)
}

// Store manages the secrets of the tenant found in the request context.
type Store struct {
	docs   *docstore.Collection[Secret]
	cipher Cipher
	logger *slog.Logger
}

// StoreOption configures Store.
type StoreOption func(*Store)

func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore binds the secrets collection on driver.
func NewStore(driver docstore.Driver, cipher Cipher, opts ...StoreOption) *Store {
	if driver == nil {
		panic("secrets: docstore driver is required")
	}
	if cipher == nil {
		panic("secrets: cipher is required")
	}

	s := &Store{
		docs:   docstore.NewCollection[Secret](driver, Collection),
		cipher: cipher,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the per-tenant unique name index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return s.docs.EnsureIndexes(ctx)
}

// SaveSecret encrypts in.Token and upserts the secret under in.Name.
// Nothing is written when encryption is unavailable.
func (s *Store) SaveSecret(ctx context.Context, in Input) (string, error) {
	if err := s.ready(true); err != nil {
		return "", err
	}
	if err := validate(in); err != nil {
		return "", err
	}

	aad, err := boundTo(ctx, in.Name)
	if err != nil {
		return "", err
	}
	ciphertext, err := s.cipher.EncryptWithAAD(in.Token, aad)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encrypt secret", logger.SecretName(in.Name), logger.Error(err))
		return "", errors.Join(ErrEncryption, err)
	}

	id, err := s.docs.Set(ctx, in.Name, &Secret{
		Name:           in.Name,
		DisplayName:    in.DisplayName,
		EnvironmentID:  in.EnvironmentID,
		EncryptedToken: ciphertext,
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "secret saved", logger.SecretName(in.Name))
	return id, nil
}

// GetSecret returns the decrypted secret or nil when it does not exist.
func (s *Store) GetSecret(ctx context.Context, name string) (*View, error) {
	if err := s.ready(true); err != nil {
		return nil, err
	}

	secret, err := s.docs.GetOrNone(ctx, name)
	if err != nil || secret == nil {
		return nil, err
	}
	return s.reveal(ctx, secret)
}

// GetAllSecrets returns every secret of the tenant. A secret that fails to
// decrypt fails the whole call with ErrDecryption naming that secret.
func (s *Store) GetAllSecrets(ctx context.Context) ([]View, error) {
	if err := s.ready(true); err != nil {
		return nil, err
	}

	stored, err := s.docs.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]View, 0, len(stored))
	for i := range stored {
		v, err := s.reveal(ctx, &stored[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// SecretExists reports whether a secret is stored under name.
// It does not need the encryption service.
func (s *Store) SecretExists(ctx context.Context, name string) (bool, error) {
	if err := s.ready(false); err != nil {
		return false, err
	}
	return s.docs.Exists(ctx, name)
}

// DeleteSecret removes the secret or returns ErrSecretNotFound.
func (s *Store) DeleteSecret(ctx context.Context, name string) error {
	if err := s.ready(false); err != nil {
		return err
	}

	deleted, err := s.docs.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSecretNotFound
	}

	s.logger.InfoContext(ctx, "secret deleted", logger.SecretName(name))
	return nil
}

// ready checks the datastore before the cipher so a deployment without a
// datastore reports that first.
func (s *Store) ready(needCipher bool) error {
	if !s.docs.Available() {
		return docstore.ErrUnavailable
	}
	if needCipher && !s.cipher.Available() {
		return ErrEncryptionUnavailable
	}
	return nil
}

func (s *Store) reveal(ctx context.Context, secret *Secret) (*View, error) {
	aad, err := boundTo(ctx, secret.Name)
	if err != nil {
		return nil, err
	}
	token, err := s.cipher.DecryptWithAAD(secret.EncryptedToken, aad)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to decrypt secret", logger.SecretName(secret.Name), logger.Error(err))
		return nil, fmt.Errorf("%w %q", ErrDecryption, secret.Name)
	}

	return &View{
		Name:          secret.Name,
		DisplayName:   secret.DisplayName,
		EnvironmentID: secret.EnvironmentID,
		Token:         token,
	}, nil
}

// boundTo ties a token to its tenant and name so a ciphertext copied to
// another tenant or secret does not decrypt.
func boundTo(ctx context.Context, name string) (string, error) {
	id, ok := tenant.IDFromContext(ctx)
	if !ok {
		return "", docstore.ErrNoTenantScope
	}
	return id + "/" + name, nil
}

func validate(in Input) error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		missing = append(missing, "displayName")
	}
	if strings.TrimSpace(in.EnvironmentID) == "" {
		missing = append(missing, "environmentId")
	}
	if in.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidSecret, strings.Join(missing, ", "))
	}
	return nil
}
