package secrets

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/saasadmin/handler"
	"github.com/dmitrymomot/saasadmin/pkg/docstore"
	secretssvc "github.com/dmitrymomot/saasadmin/svc/secrets"
)

var (
	errDatastoreUnavailable  = handler.NewHTTPError(http.StatusServiceUnavailable, "datastore_unavailable").WithMessage("Datastore is not enabled")
	errEncryptionUnavailable = handler.NewHTTPError(http.StatusServiceUnavailable, "encryption_unavailable").WithMessage("Encryption service is not available")
	errEncryption            = handler.NewHTTPError(http.StatusInternalServerError, "encryption_error").WithMessage("Failed to encrypt secret")
	errDecryption            = handler.NewHTTPError(http.StatusInternalServerError, "decryption_error").WithMessage("Failed to decrypt secret")
	errSecretNotFound        = handler.NewHTTPError(http.StatusNotFound, "not_found").WithMessage("Secret not found")
)

// MapError translates secret store errors to HTTP errors.
func MapError(err error) error {
	switch {
	case errors.Is(err, docstore.ErrUnavailable):
		return errDatastoreUnavailable.Wrap(err)
	case errors.Is(err, docstore.ErrNoTenantScope):
		return handler.ErrUnauthorized.Wrap(err)
	case errors.Is(err, secretssvc.ErrEncryptionUnavailable):
		return errEncryptionUnavailable.Wrap(err)
	case errors.Is(err, secretssvc.ErrEncryption):
		return errEncryption.Wrap(err)
	case errors.Is(err, secretssvc.ErrDecryption):
		return errDecryption.Wrap(err)
	case errors.Is(err, secretssvc.ErrSecretNotFound):
		return errSecretNotFound.Wrap(err)
	case errors.Is(err, secretssvc.ErrInvalidSecret):
		return handler.ErrBadRequest.WithMessage(err.Error()).Wrap(err)
	}
	return nil
}
