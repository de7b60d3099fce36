package binder

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/saasadmin/handler"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// instance returns the shared validator. Field names in errors follow the
// json, query or path tag, in that order.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(sf reflect.StructField) string {
			for _, tag := range []string{"json", "query", "path"} {
				if name, ok := tagValue(sf, tag); ok {
					return name
				}
			}
			return sf.Name
		})
	})
	return validate
}

// Validate checks `validate` tags. Put it last in the binder chain.
func Validate() handler.Bind {
	return func(_ *http.Request, v any) error {
		err := instance().Struct(v)
		if err == nil {
			return nil
		}

		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return handler.ErrInternal.Wrap(err)
		}

		out := handler.NewValidationError()
		for _, fe := range fieldErrs {
			out.Add(fe.Field(), message(fe))
		}
		return out
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed %s", strings.TrimSpace(fe.Tag()+" "+fe.Param()))
	}
}
