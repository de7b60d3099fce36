package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under the key "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors", keyed by their position.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func TenantID(id string) slog.Attr       { return nonEmpty("tenant_id", id) }
func UserID(id string) slog.Attr         { return nonEmpty("user_id", id) }
func RequestID(id string) slog.Attr      { return nonEmpty("request_id", id) }
func CustomerID(id string) slog.Attr     { return nonEmpty("customer_id", id) }
func SubscriptionID(id string) slog.Attr { return nonEmpty("subscription_id", id) }
func PriceID(id string) slog.Attr        { return nonEmpty("price_id", id) }

// SecretName records the name of a tenant secret. Secret values must never be logged.
func SecretName(name string) slog.Attr { return nonEmpty("secret_name", name) }

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Collection records a document collection name.
func Collection(name string) slog.Attr {
	return slog.String("collection", name)
}

// Duration records d in milliseconds under the key "duration_ms".
func Duration(d time.Duration) slog.Attr {
	return slog.Int64("duration_ms", d.Milliseconds())
}

func nonEmpty(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}
