package billing

import "context"

// Provider is the billing backend as the Manager sees it.
// Implementations return ErrProvider (and ErrProviderRejected where it
// applies) for failed calls.
type Provider interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	UpdateCustomerEmail(ctx context.Context, customerID, email string) (*Customer, error)

	// ListPrices returns active prices with their products expanded.
	ListPrices(ctx context.Context) ([]Price, error)

	CreateTrialSubscription(ctx context.Context, params TrialParams) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	// UpdateSubscriptionPrice swaps the price of one item and prorates the change.
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) (*Subscription, error)
	ListSubscriptions(ctx context.Context, customerID string, status SubscriptionStatus) ([]Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error

	CreateInvoiceItem(ctx context.Context, params InvoiceItemParams) (*UsageCharge, error)
	ListPendingInvoiceItems(ctx context.Context, customerID string) ([]UsageCharge, error)

	// CreateCheckoutSession and CreatePortalSession return redirect URLs.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}
