// Package logger builds *slog.Logger instances for the admin backend.
//
// New assembles a text or JSON handler from functional options and wraps it
// in a LogHandlerDecorator. The decorator runs every registered
// ContextExtractor on each record, so request-scoped values such as the
// request id or the acting tenant land in every log line written with a
// context-aware method (InfoContext, ErrorContext and friends).
//
// NewFromConfig does the same from a Config parsed out of the environment.
//
// attr.go holds attribute constructors (TenantID, CustomerID, Error, ...)
// that keep key names consistent across packages. Constructors taking an
// identifier return an empty slog.Attr for empty input; slog drops those.
//
//	log := logger.New(
//		logger.WithDevelopment("saasadmin"),
//		logger.WithContextExtractors(requestid.LoggerExtractor(), tenant.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "customer created", logger.CustomerID(id))
package logger
