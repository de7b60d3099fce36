package binder

import (
	"net/http"

	"github.com/dmitrymomot/saasadmin/handler"
)

// Query binds URL query parameters using `query:"name"` tags. Fields without
// a tag are skipped; comma-separated values fill slices.
func Query() handler.Bind {
	return func(r *http.Request, v any) error {
		query := r.URL.Query()
		return bindFields(v, "query", func(name string) []string {
			return query[name]
		}, ErrFailedToParseQuery)
	}
}
