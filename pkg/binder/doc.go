// Package binder populates request structs for handler.Wrap.
//
// Each binder reads one source and only the struct tag that belongs to it:
//
//	type UpdateSubscriptionRequest struct {
//		ID           string `path:"id" validate:"required"`
//		NewPriceID   string `query:"new_price_id" validate:"required"`
//		BillingEmail string `query:"billing_email" validate:"omitempty,email"`
//	}
//
//	handler.WithBinders[UpdateSubscriptionRequest](
//		binder.Path(chi.URLParam),
//		binder.Query(),
//		binder.Validate(),
//	)
//
// Parse failures are returned as handler.HTTPError values (400 or 415) and
// failed validation as handler.ValidationError, so the route's error handler
// can render them without knowing about binding.
package binder
