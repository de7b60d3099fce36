package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/saasadmin/pkg/logger"
)

// ErrorMapper translates a domain error into an HTTPError or ValidationError.
// It returns nil when it does not recognise err.
type ErrorMapper func(err error) error

// NewErrorHandler returns an ErrorHandler that maps err through mappers,
// logs it (warn for 4xx, error for 5xx) and writes a JSON error envelope.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		mapped := err
		for _, m := range mappers {
			if out := m(err); out != nil {
				mapped = out
				break
			}
		}

		var status int
		detail := errorToDetail(mapped, &status)
		resp := jsonResponse{status: status, body: ErrorBody{Error: detail}}

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		r := ctx.Request()
		log.LogAttrs(r.Context(), level, "request error",
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
