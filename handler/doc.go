// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value populated by binders,
// and returns a Response. Wrap turns it into an http.HandlerFunc:
//
//	type CheckoutRequest struct {
//		PriceID string `query:"price_id" validate:"required"`
//	}
//
//	r.Post("/checkout", handler.Wrap(
//		func(ctx handler.Context, req CheckoutRequest) handler.Response {
//			url, err := svc.CreateCheckoutSession(ctx, req.PriceID, "")
//			if err != nil {
//				return handler.Error(err)
//			}
//			return handler.JSON(map[string]string{"url": url})
//		},
//		handler.WithBinders[CheckoutRequest](binder.Query(), binder.Validate()),
//		handler.WithErrorHandler[CheckoutRequest](errorHandler),
//	))
//
// Errors returned by binders or by rendering a response go to the configured
// ErrorHandler. NewErrorHandler logs them and writes a JSON error body whose
// status comes from HTTPError, ValidationError, or a domain ErrorMapper.
package handler
