package billing

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/saasadmin/pkg/docstore"
	"github.com/dmitrymomot/saasadmin/pkg/locker"
	"github.com/dmitrymomot/saasadmin/pkg/logger"
	"github.com/dmitrymomot/saasadmin/pkg/tenant"
)

const defaultUsageDescription = "Usage charge"

// Manager runs billing operations for the tenant in the request context.
type Manager struct {
	provider  Provider
	customers *CustomerStore
	locker    locker.Locker
	bootstrap singleflight.Group
	cfg       Config
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// ManagerOption configures Manager.
type ManagerOption func(*Manager)

func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithLocker sets the lock guarding customer bootstrap. Defaults to an
// in-process locker; pass a distributed one when running several instances.
func WithLocker(l locker.Locker) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.locker = l
		}
	}
}

func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager panics on missing dependencies.
func NewManager(provider Provider, customers *CustomerStore, cfg Config, opts ...ManagerOption) *Manager {
	if provider == nil {
		panic("billing: provider is required")
	}
	if customers == nil {
		panic("billing: customer store is required")
	}
	cfg.DefaultCurrency = strings.ToLower(cmp.Or(cfg.DefaultCurrency, "usd"))
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 15 * time.Second
	}

	m := &Manager{
		provider:  provider,
		customers: customers,
		locker:    locker.NewLocal(),
		cfg:       cfg,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureCustomer returns the tenant's provider customer id, creating the
// customer (and a trial subscription when trials are enabled) on first use.
// A non-empty billingEmail that differs from the stored email is pushed to
// the provider and the local mapping.
func (m *Manager) EnsureCustomer(ctx context.Context, billingEmail string) (string, error) {
	id, err := m.identity(ctx)
	if err != nil {
		return "", err
	}

	email := cmp.Or(billingEmail, id.Email)
	if email == "" || id.TenantName == "" {
		return "", fmt.Errorf("%w: email and tenant name must be set", ErrMissingIdentity)
	}

	mapping, err := m.customers.FindByTenant(ctx, id.TenantID)
	if err != nil {
		return "", err
	}

	if mapping == nil {
		v, err, _ := m.bootstrap.Do(id.TenantID, func() (any, error) {
			return m.bootstrapCustomer(ctx, id, email)
		})
		if err != nil {
			return "", err
		}
		mapping = v.(*CustomerMapping)
	} else {
		m.logger.DebugContext(ctx, "found existing customer", logger.CustomerID(mapping.ID))
	}

	if billingEmail != "" && mapping.Email != billingEmail {
		customer, err := m.provider.UpdateCustomerEmail(ctx, mapping.ID, billingEmail)
		if err != nil {
			return "", err
		}
		if err := m.customers.UpdateEmail(ctx, mapping.ID, billingEmail); err != nil {
			return "", err
		}
		m.logger.InfoContext(ctx, "updated customer billing email", logger.CustomerID(customer.ID))
		return customer.ID, nil
	}

	return mapping.ID, nil
}

// bootstrapCustomer runs under the tenant lock and re-checks the mapping
// before creating anything.
func (m *Manager) bootstrapCustomer(ctx context.Context, id *tenant.Identity, email string) (*CustomerMapping, error) {
	lockCtx, cancel := context.WithTimeout(ctx, m.cfg.LockTimeout)
	defer cancel()

	unlock, err := m.locker.Lock(lockCtx, "billing:customer:"+id.TenantID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := m.customers.FindByTenant(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	m.logger.InfoContext(ctx, "creating billing customer", slog.String("tenant_name", id.TenantName))

	customer, err := m.provider.CreateCustomer(ctx, CustomerParams{
		Email: email,
		Name:  id.TenantName,
		Metadata: map[string]string{
			"tenant_id":   id.TenantID,
			"tenant_name": id.TenantName,
		},
	})
	if err != nil {
		return nil, err
	}

	mapping := &CustomerMapping{
		ID:       customer.ID,
		TenantID: id.TenantID,
		Email:    email,
	}
	if err := m.customers.Create(ctx, mapping); err != nil {
		if !errors.Is(err, docstore.ErrDuplicateKey) {
			return nil, err
		}
		// Another instance won the race without holding our lock.
		winner, ferr := m.customers.FindByTenant(ctx, id.TenantID)
		if ferr != nil || winner == nil {
			return nil, errors.Join(err, ferr)
		}
		m.logger.WarnContext(ctx, "customer mapping created concurrently, provider customer left orphaned",
			logger.CustomerID(customer.ID),
			slog.String("winner_customer_id", winner.ID),
		)
		return winner, nil
	}
	m.metrics.customerBootstrapped()

	if m.cfg.TrialDays <= 0 {
		m.logger.InfoContext(ctx, "trial disabled, customer must subscribe", logger.CustomerID(customer.ID))
		return mapping, nil
	}

	products, err := m.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoPaidProducts
	}

	trialEnd := m.now().Add(time.Duration(m.cfg.TrialDays) * 24 * time.Hour)
	sub, err := m.provider.CreateTrialSubscription(ctx, TrialParams{
		CustomerID: customer.ID,
		PriceID:    products[0].PriceID,
		TrialEnd:   trialEnd,
		Metadata: map[string]string{
			"tenant_id": id.TenantID,
			"type":      "trial",
		},
	})
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "trial subscription created",
		logger.CustomerID(customer.ID),
		logger.SubscriptionID(sub.ID),
		slog.Time("trial_end", trialEnd),
	)
	return mapping, nil
}

// GetProducts lists active products with a paid price.
func (m *Manager) GetProducts(ctx context.Context) ([]Product, error) {
	prices, err := m.provider.ListPrices(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(prices))
	for _, p := range prices {
		if p.Product == nil || !p.Product.Active || p.Amount == 0 {
			continue
		}
		products = append(products, Product{
			ID:            p.Product.ID,
			Name:          p.Product.Name,
			Description:   p.Product.Description,
			PriceID:       p.ID,
			PriceAmount:   p.Amount,
			PriceCurrency: cmp.Or(p.Currency, m.cfg.DefaultCurrency),
			PriceInterval: p.Interval,
		})
	}
	return products, nil
}

// GetActiveSubscription returns the tenant's active or trialing subscription,
// bootstrapping the customer when needed. It returns nil when there is none.
func (m *Manager) GetActiveSubscription(ctx context.Context) (*Subscription, error) {
	id, err := m.identity(ctx)
	if err != nil {
		return nil, err
	}

	mapping, err := m.customers.FindByTenant(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		if _, err := m.EnsureCustomer(ctx, ""); err != nil {
			return nil, err
		}
		if mapping, err = m.customers.FindByTenant(ctx, id.TenantID); err != nil {
			return nil, err
		}
		if mapping == nil {
			m.logger.WarnContext(ctx, "customer mapping missing after bootstrap")
			return nil, nil
		}
	}

	active, err := m.provider.ListSubscriptions(ctx, mapping.ID, StatusActive)
	if err != nil {
		return nil, err
	}
	trialing, err := m.provider.ListSubscriptions(ctx, mapping.ID, StatusTrialing)
	if err != nil {
		return nil, err
	}

	subs := append(active, trialing...)
	if len(subs) == 0 {
		return nil, nil
	}
	if len(subs) > 1 {
		subs = m.reconcile(ctx, subs)
	}

	return &subs[0], nil
}

// reconcile cancels trials that coexist with a paid subscription and returns
// what remains. Several paid subscriptions are all kept, newest period first.
func (m *Manager) reconcile(ctx context.Context, subs []Subscription) []Subscription {
	var paid, trials []Subscription
	for _, s := range subs {
		if s.Status == StatusTrialing {
			trials = append(trials, s)
		} else {
			paid = append(paid, s)
		}
	}

	if len(paid) == 0 || len(trials) == 0 {
		if len(paid) > 1 {
			return m.orderPaid(ctx, paid)
		}
		return subs
	}

	for _, t := range trials {
		err := m.provider.CancelSubscription(ctx, t.ID)
		switch {
		case err == nil:
			m.logger.InfoContext(ctx, "cancelled duplicate trial subscription", logger.SubscriptionID(t.ID))
			m.metrics.trialCancellation("canceled")
		case errors.Is(err, ErrProviderRejected):
			m.logger.WarnContext(ctx, "could not cancel trial subscription",
				logger.SubscriptionID(t.ID), logger.Error(err))
			m.metrics.trialCancellation("rejected")
		default:
			m.logger.ErrorContext(ctx, "failed to cancel trial subscription",
				logger.SubscriptionID(t.ID), logger.Error(err))
			m.metrics.trialCancellation("failed")
		}
	}

	if len(paid) > 1 {
		return m.orderPaid(ctx, paid)
	}
	return paid
}

func (m *Manager) orderPaid(ctx context.Context, paid []Subscription) []Subscription {
	ids := make([]string, len(paid))
	for i, s := range paid {
		ids[i] = s.ID
	}
	m.logger.WarnContext(ctx, "tenant has more than one paid subscription", slog.Any("subscription_ids", ids))
	m.metrics.duplicatePaidSubscriptions()

	slices.SortStableFunc(paid, func(a, b Subscription) int {
		return cmp.Compare(b.CurrentPeriodStart, a.CurrentPeriodStart)
	})
	return paid
}

// Status reports both access flags from a single subscription lookup.
func (m *Manager) Status(ctx context.Context) (*AccessStatus, error) {
	sub, err := m.GetActiveSubscription(ctx)
	if err != nil {
		return nil, err
	}
	return accessStatus(sub), nil
}

// IsSubscribed reports whether the tenant has an active or trialing subscription.
func (m *Manager) IsSubscribed(ctx context.Context) (bool, error) {
	st, err := m.Status(ctx)
	if err != nil {
		return false, err
	}
	return st.Subscribed, nil
}

// IsTrialing reports whether the tenant is in its free trial.
func (m *Manager) IsTrialing(ctx context.Context) (bool, error) {
	st, err := m.Status(ctx)
	if err != nil {
		return false, err
	}
	return st.Trialing, nil
}

func accessStatus(sub *Subscription) *AccessStatus {
	if sub == nil {
		return &AccessStatus{}
	}
	return &AccessStatus{
		Subscribed: sub.Status == StatusActive || sub.Status == StatusTrialing,
		Trialing:   sub.Status == StatusTrialing,
	}
}

// UpdateSubscription moves the subscription's first item to newPriceID with
// prorations. The subscription must belong to the tenant's customer.
func (m *Manager) UpdateSubscription(ctx context.Context, subscriptionID, newPriceID, billingEmail string) (*Subscription, error) {
	id, err := m.identity(ctx)
	if err != nil {
		return nil, err
	}
	if newPriceID == "" {
		return nil, ErrMissingPriceID
	}

	if billingEmail != "" {
		if _, err := m.EnsureCustomer(ctx, billingEmail); err != nil {
			return nil, err
		}
	}

	mapping, err := m.customers.FindByTenant(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, ErrNoCustomer
	}

	current, err := m.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if current.CustomerID != mapping.ID {
		m.logger.WarnContext(ctx, "subscription does not belong to tenant", logger.SubscriptionID(subscriptionID))
		return nil, ErrSubscriptionNotFound
	}
	if current.ItemID == "" {
		return nil, ErrSubscriptionHasNoItems
	}

	updated, err := m.provider.UpdateSubscriptionPrice(ctx, subscriptionID, current.ItemID, newPriceID)
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "subscription price changed",
		logger.SubscriptionID(subscriptionID),
		logger.PriceID(newPriceID),
	)
	return updated, nil
}

// CreateCheckoutSession returns the provider checkout URL for priceID.
func (m *Manager) CreateCheckoutSession(ctx context.Context, priceID, billingEmail string) (string, error) {
	if priceID == "" {
		return "", ErrMissingPriceID
	}

	customerID, err := m.EnsureCustomer(ctx, billingEmail)
	if err != nil {
		return "", err
	}
	id := tenant.MustFromContext(ctx)

	url, err := m.provider.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: m.cfg.checkoutSuccessURL(),
		CancelURL:  m.cfg.checkoutCancelURL(),
		Metadata: map[string]string{
			"tenant_id":   id.TenantID,
			"tenant_name": id.TenantName,
		},
	})
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", ErrNoCheckoutURL
	}
	return url, nil
}

// CreatePortalSession returns the provider customer portal URL.
func (m *Manager) CreatePortalSession(ctx context.Context) (string, error) {
	customerID, err := m.EnsureCustomer(ctx, "")
	if err != nil {
		return "", err
	}

	url, err := m.provider.CreatePortalSession(ctx, customerID, m.cfg.portalReturnURL())
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", ErrNoPortalURL
	}
	return url, nil
}

// GetBillingInfo reports the billing email and payment method state. It
// never creates a customer.
func (m *Manager) GetBillingInfo(ctx context.Context) (*BillingInfo, error) {
	id, err := m.identity(ctx)
	if err != nil {
		return nil, err
	}

	mapping, err := m.customers.FindByTenant(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return &BillingInfo{BillingEmail: id.Email}, nil
	}

	customer, err := m.provider.GetCustomer(ctx, mapping.ID)
	if err != nil {
		return nil, err
	}
	return &BillingInfo{
		BillingEmail:     customer.Email,
		HasPaymentMethod: customer.HasPaymentMethod,
	}, nil
}

// UpdateBillingEmail changes the billing email on the provider and locally.
// It fails with ErrNoCustomer before any provider call when the tenant has
// no customer yet.
func (m *Manager) UpdateBillingEmail(ctx context.Context, email string) (*BillingInfo, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	mapping, err := m.requireCustomer(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := m.provider.UpdateCustomerEmail(ctx, mapping.ID, email); err != nil {
		return nil, err
	}
	if err := m.customers.UpdateEmail(ctx, mapping.ID, email); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "updated billing email", logger.CustomerID(mapping.ID))
	return &BillingInfo{BillingEmail: email}, nil
}

// AddUsage records a one-off charge, in minor units, on the next invoice.
func (m *Manager) AddUsage(ctx context.Context, amount int64, description string) (*UsageCharge, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	mapping, err := m.requireCustomer(ctx)
	if err != nil {
		return nil, err
	}

	charge, err := m.provider.CreateInvoiceItem(ctx, InvoiceItemParams{
		CustomerID:  mapping.ID,
		Amount:      amount,
		Currency:    m.cfg.DefaultCurrency,
		Description: cmp.Or(strings.TrimSpace(description), defaultUsageDescription),
	})
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "usage charge created",
		logger.CustomerID(mapping.ID),
		slog.Int64("amount", amount),
	)
	return charge, nil
}

// GetPendingUsage lists charges not yet invoiced.
func (m *Manager) GetPendingUsage(ctx context.Context) ([]UsageCharge, error) {
	mapping, err := m.requireCustomer(ctx)
	if err != nil {
		return nil, err
	}
	return m.provider.ListPendingInvoiceItems(ctx, mapping.ID)
}

func (m *Manager) requireCustomer(ctx context.Context) (*CustomerMapping, error) {
	id, err := m.identity(ctx)
	if err != nil {
		return nil, err
	}

	mapping, err := m.customers.FindByTenant(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, ErrNoCustomer
	}
	return mapping, nil
}

func (m *Manager) identity(ctx context.Context) (*tenant.Identity, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok || id.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id must be set", ErrMissingIdentity)
	}
	return id, nil
}
