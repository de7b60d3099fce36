package billing

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/saasadmin/handler"
	"github.com/dmitrymomot/saasadmin/pkg/docstore"
	"github.com/dmitrymomot/saasadmin/pkg/locker"
	billingsvc "github.com/dmitrymomot/saasadmin/svc/billing"
)

var (
	errDatastoreUnavailable = handler.NewHTTPError(http.StatusServiceUnavailable, "datastore_unavailable").WithMessage("Datastore is not enabled")
	errNoCustomer           = handler.NewHTTPError(http.StatusBadRequest, "no_customer").WithMessage("No customer found for tenant")
	errProviderRejected     = handler.NewHTTPError(http.StatusBadRequest, "provider_rejected").WithMessage("The billing provider rejected the request")
)

// MapError translates billing errors to HTTP errors.
func MapError(err error) error {
	switch {
	case errors.Is(err, docstore.ErrUnavailable):
		return errDatastoreUnavailable.Wrap(err)
	case errors.Is(err, locker.ErrLockTimeout):
		return handler.ErrServiceUnavailable.Wrap(err)
	case errors.Is(err, billingsvc.ErrNoCustomer):
		return errNoCustomer.Wrap(err)
	case errors.Is(err, billingsvc.ErrMissingIdentity),
		errors.Is(err, billingsvc.ErrInvalidEmail),
		errors.Is(err, billingsvc.ErrMissingPriceID),
		errors.Is(err, billingsvc.ErrInvalidAmount):
		return handler.ErrBadRequest.WithMessage(err.Error()).Wrap(err)
	case errors.Is(err, billingsvc.ErrSubscriptionNotFound):
		return handler.ErrNotFound.WithMessage("Subscription not found").Wrap(err)
	case errors.Is(err, billingsvc.ErrSubscriptionHasNoItems),
		errors.Is(err, billingsvc.ErrNoPaidProducts):
		return handler.ErrConflict.WithMessage(err.Error()).Wrap(err)
	case errors.Is(err, billingsvc.ErrProviderRejected):
		return errProviderRejected.Wrap(err)
	case errors.Is(err, billingsvc.ErrProvider),
		errors.Is(err, billingsvc.ErrNoCheckoutURL),
		errors.Is(err, billingsvc.ErrNoPortalURL):
		return handler.ErrBadGateway.Wrap(err)
	}
	return nil
}
