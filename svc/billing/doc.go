// Package billing manages the billing lifecycle of a tenant against Stripe.
//
// Each tenant maps to exactly one provider customer, recorded in the global
// "customers" collection. The Manager bootstraps that customer on first use
// (with a trial subscription on the first paid price when trials are
// enabled), exposes the tenant's current subscription and reconciles the
// common trial-plus-paid duplicate by cancelling the trial.
//
// Bootstrap is serialised per tenant: concurrent callers in one process share
// a single flight, the optional distributed locker covers several processes,
// and a unique index on tenant_id backs both with a conflict-retry.
//
// Provider objects never leave StripeProvider; they are normalised into
// Subscription, Price, Customer and UsageCharge at the boundary.
package billing
