package billing

import "errors"

var (
	ErrMissingIdentity        = errors.New("billing requires tenant id, tenant name and email")
	ErrInvalidEmail           = errors.New("billing email is required")
	ErrMissingPriceID         = errors.New("price id is required")
	ErrInvalidAmount          = errors.New("usage amount must be positive")
	ErrNoCustomer             = errors.New("no customer found for tenant")
	ErrNoPaidProducts         = errors.New("no paid products available for trial subscription")
	ErrSubscriptionNotFound   = errors.New("subscription not found")
	ErrSubscriptionHasNoItems = errors.New("subscription has no items")
	ErrNoCheckoutURL          = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL            = errors.New("no portal URL returned from provider")

	// ErrProvider wraps every failed provider call.
	ErrProvider = errors.New("billing provider error")
	// ErrProviderRejected marks provider errors the caller can correct,
	// such as cancelling an already cancelled subscription.
	ErrProviderRejected = errors.New("billing provider rejected the request")
)
