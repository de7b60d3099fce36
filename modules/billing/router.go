package billing

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/saasadmin/handler"
	"github.com/dmitrymomot/saasadmin/pkg/binder"
	billingsvc "github.com/dmitrymomot/saasadmin/svc/billing"
)

// Service is the billing manager as seen by the HTTP layer.
type Service interface {
	GetProducts(ctx context.Context) ([]billingsvc.Product, error)
	CreateCheckoutSession(ctx context.Context, priceID, billingEmail string) (string, error)
	GetActiveSubscription(ctx context.Context) (*billingsvc.Subscription, error)
	Status(ctx context.Context) (*billingsvc.AccessStatus, error)
	UpdateSubscription(ctx context.Context, subscriptionID, newPriceID, billingEmail string) (*billingsvc.Subscription, error)
	CreatePortalSession(ctx context.Context) (string, error)
	GetBillingInfo(ctx context.Context) (*billingsvc.BillingInfo, error)
	UpdateBillingEmail(ctx context.Context, email string) (*billingsvc.BillingInfo, error)
	AddUsage(ctx context.Context, amount int64, description string) (*billingsvc.UsageCharge, error)
	GetPendingUsage(ctx context.Context) ([]billingsvc.UsageCharge, error)
}

// Module serves the tenant billing endpoints. It expects the session
// middleware to have stored the tenant identity.
type Module struct {
	svc          Service
	errorHandler handler.ErrorHandler
}

func New(svc Service, log *slog.Logger) *Module {
	return &Module{
		svc:          svc,
		errorHandler: handler.NewErrorHandler(log, MapError),
	}
}

func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", handler.Wrap(m.products,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Post("/checkout", handler.Wrap(m.checkout,
		handler.WithBinders[CheckoutRequest](binder.Query(), binder.Validate()),
		handler.WithErrorHandler[CheckoutRequest](m.errorHandler),
	))
	r.Get("/subscription", handler.Wrap(m.subscription,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Get("/status", handler.Wrap(m.status,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Put("/subscriptions/{id}", handler.Wrap(m.updateSubscription,
		handler.WithBinders[UpdateSubscriptionRequest](binder.Path(chi.URLParam), binder.Query(), binder.Validate()),
		handler.WithErrorHandler[UpdateSubscriptionRequest](m.errorHandler),
	))
	r.Post("/portal", handler.Wrap(m.portal,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Get("/billing-info", handler.Wrap(m.billingInfo,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Put("/billing-email", handler.Wrap(m.updateBillingEmail,
		handler.WithBinders[BillingEmailRequest](binder.Query(), binder.Validate()),
		handler.WithErrorHandler[BillingEmailRequest](m.errorHandler),
	))
	r.Post("/usage", handler.Wrap(m.addUsage,
		handler.WithBinders[UsageRequest](binder.Query(), binder.Validate()),
		handler.WithErrorHandler[UsageRequest](m.errorHandler),
	))
	r.Get("/usage", handler.Wrap(m.pendingUsage,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))

	return r
}

type CheckoutRequest struct {
	PriceID      string `query:"price_id" validate:"required"`
	BillingEmail string `query:"billing_email" validate:"omitempty,email"`
}

type UpdateSubscriptionRequest struct {
	SubscriptionID string `path:"id" validate:"required"`
	NewPriceID     string `query:"new_price_id" validate:"required"`
	BillingEmail   string `query:"billing_email" validate:"omitempty,email"`
}

type BillingEmailRequest struct {
	Email string `query:"email" validate:"required,email"`
}

type UsageRequest struct {
	Amount      int64  `query:"amount" validate:"gt=0"`
	Description string `query:"description" validate:"max=500"`
}

type URLResponse struct {
	URL string `json:"url"`
}

func (m *Module) products(ctx handler.Context, _ struct{}) handler.Response {
	products, err := m.svc.GetProducts(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(products)
}

func (m *Module) checkout(ctx handler.Context, req CheckoutRequest) handler.Response {
	url, err := m.svc.CreateCheckoutSession(ctx, req.PriceID, req.BillingEmail)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(URLResponse{URL: url})
}

// subscription responds with null when the tenant has no active subscription.
func (m *Module) subscription(ctx handler.Context, _ struct{}) handler.Response {
	sub, err := m.svc.GetActiveSubscription(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(sub)
}

func (m *Module) status(ctx handler.Context, _ struct{}) handler.Response {
	st, err := m.svc.Status(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(st)
}

func (m *Module) updateSubscription(ctx handler.Context, req UpdateSubscriptionRequest) handler.Response {
	sub, err := m.svc.UpdateSubscription(ctx, req.SubscriptionID, req.NewPriceID, req.BillingEmail)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(sub)
}

func (m *Module) portal(ctx handler.Context, _ struct{}) handler.Response {
	url, err := m.svc.CreatePortalSession(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(URLResponse{URL: url})
}

func (m *Module) billingInfo(ctx handler.Context, _ struct{}) handler.Response {
	info, err := m.svc.GetBillingInfo(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(info)
}

func (m *Module) updateBillingEmail(ctx handler.Context, req BillingEmailRequest) handler.Response {
	info, err := m.svc.UpdateBillingEmail(ctx, req.Email)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(info)
}

func (m *Module) addUsage(ctx handler.Context, req UsageRequest) handler.Response {
	charge, err := m.svc.AddUsage(ctx, req.Amount, req.Description)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(charge)
}

func (m *Module) pendingUsage(ctx handler.Context, _ struct{}) handler.Response {
	charges, err := m.svc.GetPendingUsage(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(charges)
}
