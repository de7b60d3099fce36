package billing

import "time"

// SubscriptionStatus mirrors the provider's subscription states.
type SubscriptionStatus string

const (
	StatusActive            SubscriptionStatus = "active"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusPaused            SubscriptionStatus = "paused"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusUnpaid            SubscriptionStatus = "unpaid"
)

// PriceInterval is the billing period of a recurring price.
type PriceInterval string

const (
	IntervalDay   PriceInterval = "day"
	IntervalWeek  PriceInterval = "week"
	IntervalMonth PriceInterval = "month"
	IntervalYear  PriceInterval = "year"
)

// Subscription is the normalised view of a provider subscription.
// Only the first line item is represented. Amounts are minor currency units.
type Subscription struct {
	ID                 string             `json:"id"`
	CustomerID         string             `json:"-"`
	ItemID             string             `json:"-"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart int64              `json:"current_period_start"`
	CurrentPeriodEnd   int64              `json:"current_period_end"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"`
	CancelAt           *int64             `json:"cancel_at"`
	ProductID          string             `json:"product_id"`
	ProductName        string             `json:"product_name"`
	ProductDescription string             `json:"product_description,omitempty"`
	PriceID            string             `json:"price_id"`
	PriceAmount        int64              `json:"price_amount"`
	PriceCurrency      string             `json:"price_currency"`
	PriceInterval      PriceInterval      `json:"price_interval,omitempty"`
}

// Price is an active provider price. Product is nil when the provider did
// not expand it.
type Price struct {
	ID       string
	Amount   int64
	Currency string
	Interval PriceInterval
	Product  *ProductInfo
}

type ProductInfo struct {
	ID          string
	Name        string
	Description string
	Active      bool
}

// Product is a sellable plan: an active product with one paid price.
type Product struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	PriceID       string        `json:"price_id"`
	PriceAmount   int64         `json:"price_amount"`
	PriceCurrency string        `json:"price_currency"`
	PriceInterval PriceInterval `json:"price_interval,omitempty"`
}

// Customer is the provider-side customer record.
type Customer struct {
	ID               string
	Email            string
	HasPaymentMethod bool
}

// BillingInfo is the read-only billing summary shown in the admin UI.
type BillingInfo struct {
	BillingEmail     string `json:"billing_email"`
	HasPaymentMethod bool   `json:"has_payment_method"`
}

// AccessStatus summarizes the tenant's subscription for feature gating.
type AccessStatus struct {
	Subscribed bool `json:"subscribed"`
	Trialing   bool `json:"trialing"`
}

// UsageCharge is an invoice item not yet billed.
type UsageCharge struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Date        int64  `json:"date,omitempty"`
}

type CustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

type TrialParams struct {
	CustomerID string
	PriceID    string
	TrialEnd   time.Time
	Metadata   map[string]string
}

type CheckoutParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type InvoiceItemParams struct {
	CustomerID  string
	Amount      int64
	Currency    string
	Description string
}
