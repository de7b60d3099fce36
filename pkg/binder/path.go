package binder

import (
	"net/http"

	"github.com/dmitrymomot/saasadmin/handler"
)

// Path binds `path:"name"` fields through extractor, usually chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) handler.Bind {
	return func(r *http.Request, v any) error {
		return bindFields(v, "path", func(name string) []string {
			if value := extractor(r, name); value != "" {
				return []string{value}
			}
			return nil
		}, ErrFailedToParsePath)
	}
}
