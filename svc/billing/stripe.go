package billing

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/dmitrymomot/saasadmin/pkg/logger"
)

const (
	productCacheSize = 256
	productCacheTTL  = 10 * time.Minute
)

// StripeProvider implements Provider on the Stripe API.
type StripeProvider struct {
	api             *client.API
	defaultCurrency string
	logger          *slog.Logger

	// products caches follow-up product lookups for subscriptions whose
	// price was returned without an expanded product.
	products *expirable.LRU[string, *stripe.Product]
}

// NewStripe builds a Stripe client for secretKey. A nil backends value uses
// the library defaults.
func NewStripe(secretKey string, backends *stripe.Backends) *client.API {
	return client.New(secretKey, backends)
}

func NewStripeProvider(api *client.API, defaultCurrency string, log *slog.Logger) *StripeProvider {
	if api == nil {
		panic("billing: stripe client is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &StripeProvider{
		api:             api,
		defaultCurrency: cmp.Or(defaultCurrency, "usd"),
		logger:          log,
		products:        expirable.NewLRU[string, *stripe.Product](productCacheSize, nil, productCacheTTL),
	}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	cp := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
		Name:  stripe.String(params.Name),
	}
	cp.Context = ctx
	for k, v := range params.Metadata {
		cp.AddMetadata(k, v)
	}

	c, err := p.api.Customers.New(cp)
	if err != nil {
		return nil, providerError("create customer", err)
	}
	return toCustomer(c), nil
}

func (p *StripeProvider) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	cp := &stripe.CustomerParams{}
	cp.Context = ctx

	c, err := p.api.Customers.Get(customerID, cp)
	if err != nil {
		return nil, providerError("get customer", err)
	}
	return toCustomer(c), nil
}

func (p *StripeProvider) UpdateCustomerEmail(ctx context.Context, customerID, email string) (*Customer, error) {
	cp := &stripe.CustomerParams{Email: stripe.String(email)}
	cp.Context = ctx

	c, err := p.api.Customers.Update(customerID, cp)
	if err != nil {
		return nil, providerError("update customer", err)
	}
	return toCustomer(c), nil
}

func (p *StripeProvider) ListPrices(ctx context.Context) ([]Price, error) {
	lp := &stripe.PriceListParams{Active: stripe.Bool(true)}
	lp.Context = ctx
	lp.Limit = stripe.Int64(100)
	lp.Single = true
	lp.AddExpand("data.product")

	var prices []Price
	iter := p.api.Prices.List(lp)
	for iter.Next() {
		prices = append(prices, toPrice(iter.Price(), p.defaultCurrency))
	}
	if err := iter.Err(); err != nil {
		return nil, providerError("list prices", err)
	}
	return prices, nil
}

func (p *StripeProvider) CreateTrialSubscription(ctx context.Context, params TrialParams) (*Subscription, error) {
	sp := &stripe.SubscriptionParams{
		Customer: stripe.String(params.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(params.PriceID)},
		},
		TrialEnd: stripe.Int64(params.TrialEnd.Unix()),
		TrialSettings: &stripe.SubscriptionTrialSettingsParams{
			EndBehavior: &stripe.SubscriptionTrialSettingsEndBehaviorParams{
				MissingPaymentMethod: stripe.String("cancel"),
			},
		},
	}
	sp.Context = ctx
	sp.AddExpand("items.data.price.product")
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}

	s, err := p.api.Subscriptions.New(sp)
	if err != nil {
		return nil, providerError("create trial subscription", err)
	}
	return p.normalize(ctx, s), nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	sp := &stripe.SubscriptionParams{}
	sp.Context = ctx
	sp.AddExpand("items.data.price.product")

	s, err := p.api.Subscriptions.Get(subscriptionID, sp)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Join(ErrSubscriptionNotFound, providerError("get subscription", err))
		}
		return nil, providerError("get subscription", err)
	}
	return p.normalize(ctx, s), nil
}

func (p *StripeProvider) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) (*Subscription, error) {
	sp := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{ID: stripe.String(itemID), Price: stripe.String(priceID)},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	sp.Context = ctx
	sp.AddExpand("items.data.price.product")

	s, err := p.api.Subscriptions.Update(subscriptionID, sp)
	if err != nil {
		return nil, providerError("update subscription", err)
	}
	return p.normalize(ctx, s), nil
}

func (p *StripeProvider) ListSubscriptions(ctx context.Context, customerID string, status SubscriptionStatus) ([]Subscription, error) {
	lp := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(status)),
	}
	lp.Context = ctx
	lp.Limit = stripe.Int64(10)
	lp.Single = true
	// Expansion stops at four levels, products are fetched separately.
	lp.AddExpand("data.items.data.price")

	var subs []Subscription
	iter := p.api.Subscriptions.List(lp)
	for iter.Next() {
		subs = append(subs, *p.normalize(ctx, iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, providerError("list subscriptions", err)
	}
	return subs, nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	cp := &stripe.SubscriptionCancelParams{}
	cp.Context = ctx

	if _, err := p.api.Subscriptions.Cancel(subscriptionID, cp); err != nil {
		return providerError("cancel subscription", err)
	}
	return nil
}

func (p *StripeProvider) CreateInvoiceItem(ctx context.Context, params InvoiceItemParams) (*UsageCharge, error) {
	ip := &stripe.InvoiceItemParams{
		Customer:    stripe.String(params.CustomerID),
		Amount:      stripe.Int64(params.Amount),
		Currency:    stripe.String(cmp.Or(params.Currency, p.defaultCurrency)),
		Description: stripe.String(params.Description),
	}
	ip.Context = ctx

	item, err := p.api.InvoiceItems.New(ip)
	if err != nil {
		return nil, providerError("create invoice item", err)
	}
	charge := toUsageCharge(item, p.defaultCurrency)
	return &charge, nil
}

func (p *StripeProvider) ListPendingInvoiceItems(ctx context.Context, customerID string) ([]UsageCharge, error) {
	lp := &stripe.InvoiceItemListParams{
		Customer: stripe.String(customerID),
		Pending:  stripe.Bool(true),
	}
	lp.Context = ctx
	lp.Limit = stripe.Int64(100)
	lp.Single = true

	charges := []UsageCharge{}
	iter := p.api.InvoiceItems.List(lp)
	for iter.Next() {
		charges = append(charges, toUsageCharge(iter.InvoiceItem(), p.defaultCurrency))
	}
	if err := iter.Err(); err != nil {
		return nil, providerError("list invoice items", err)
	}
	return charges, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	cp := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(params.CustomerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: params.Metadata,
		},
	}
	cp.Context = ctx
	for k, v := range params.Metadata {
		cp.AddMetadata(k, v)
	}

	s, err := p.api.CheckoutSessions.New(cp)
	if err != nil {
		return "", providerError("create checkout session", err)
	}
	return s.URL, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	bp := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	bp.Context = ctx

	s, err := p.api.BillingPortalSessions.New(bp)
	if err != nil {
		return "", providerError("create portal session", err)
	}
	return s.URL, nil
}

// normalize converts s, fetching the product when the response carries only
// its id. A failed lookup degrades to placeholder names.
func (p *StripeProvider) normalize(ctx context.Context, s *stripe.Subscription) *Subscription {
	return normalizeSubscription(s, p.defaultCurrency, func(id string) (*stripe.Product, error) {
		if prod, ok := p.products.Get(id); ok {
			return prod, nil
		}
		pp := &stripe.ProductParams{}
		pp.Context = ctx
		prod, err := p.api.Products.Get(id, pp)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to fetch product details",
				slog.String("product_id", id),
				logger.Error(err),
			)
			return nil, err
		}
		p.products.Add(id, prod)
		return prod, nil
	})
}

func normalizeSubscription(s *stripe.Subscription, defaultCurrency string, lookup func(id string) (*stripe.Product, error)) *Subscription {
	out := &Subscription{
		ID:                 s.ID,
		Status:             SubscriptionStatus(s.Status),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		ProductID:          "unknown",
		ProductName:        "Unknown",
		PriceCurrency:      defaultCurrency,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.CancelAt > 0 {
		cancelAt := s.CancelAt
		out.CancelAt = &cancelAt
	}

	if s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0] == nil {
		return out
	}
	item := s.Items.Data[0]
	out.ItemID = item.ID

	price := item.Price
	if price == nil {
		return out
	}
	out.PriceID = price.ID
	out.PriceAmount = price.UnitAmount
	out.PriceCurrency = cmp.Or(string(price.Currency), defaultCurrency)
	if price.Recurring != nil {
		out.PriceInterval = PriceInterval(price.Recurring.Interval)
	}

	prod := price.Product
	if prod != nil && prod.ID != "" && prod.Name == "" && lookup != nil {
		if full, err := lookup(prod.ID); err == nil && full != nil {
			prod = full
		}
	}
	if prod != nil && prod.ID != "" {
		out.ProductID = prod.ID
		out.ProductName = cmp.Or(prod.Name, "Unknown")
		out.ProductDescription = prod.Description
	}
	return out
}

func toPrice(p *stripe.Price, defaultCurrency string) Price {
	out := Price{
		ID:       p.ID,
		Amount:   p.UnitAmount,
		Currency: cmp.Or(string(p.Currency), defaultCurrency),
	}
	if p.Recurring != nil {
		out.Interval = PriceInterval(p.Recurring.Interval)
	}
	// An unexpanded product only carries its id.
	if p.Product != nil && p.Product.Name != "" {
		out.Product = &ProductInfo{
			ID:          p.Product.ID,
			Name:        p.Product.Name,
			Description: p.Product.Description,
			Active:      p.Product.Active,
		}
	}
	return out
}

func toCustomer(c *stripe.Customer) *Customer {
	return &Customer{
		ID:               c.ID,
		Email:            c.Email,
		HasPaymentMethod: c.InvoiceSettings != nil && c.InvoiceSettings.DefaultPaymentMethod != nil,
	}
}

func toUsageCharge(item *stripe.InvoiceItem, defaultCurrency string) UsageCharge {
	return UsageCharge{
		ID:          item.ID,
		Amount:      item.Amount,
		Currency:    cmp.Or(string(item.Currency), defaultCurrency),
		Description: item.Description,
		Date:        item.Date,
	}
}

func providerError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeInvalidRequest {
		return fmt.Errorf("%s: %w", op, errors.Join(ErrProviderRejected, ErrProvider, err))
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrProvider, err))
}

func isNotFound(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.HTTPStatusCode == 404
}
