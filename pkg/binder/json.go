package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/dmitrymomot/saasadmin/handler"
)

// DefaultMaxJSONSize is the largest accepted JSON body.
const DefaultMaxJSONSize = 1 << 20

// JSON decodes an application/json body into the target. Unknown fields
// and trailing data are rejected.
func JSON() handler.Bind {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return handler.ErrUnsupportedMediaType.Wrap(
				fmt.Errorf("%w: expected application/json", ErrMissingContentType))
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return handler.ErrUnsupportedMediaType.Wrap(
				fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType))
		}

		body := http.MaxBytesReader(nil, r.Body, DefaultMaxJSONSize)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()

		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return badRequest(fmt.Errorf("%w: empty body", ErrFailedToParseJSON))
			}
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return handler.NewHTTPError(http.StatusRequestEntityTooLarge, "request_entity_too_large").
					Wrap(fmt.Errorf("%w: body exceeds %d bytes", ErrFailedToParseJSON, DefaultMaxJSONSize))
			}
			return badRequest(fmt.Errorf("%w: %v", ErrFailedToParseJSON, err))
		}

		var extra json.RawMessage
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return badRequest(fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON))
		}
		return nil
	}
}

func badRequest(err error) error {
	return handler.ErrBadRequest.WithMessage(err.Error()).Wrap(err)
}
