package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/saasadmin/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("svc", "billing")))
		log.Info("hello")
		assert.Equal(t, "billing", decode(t, buf)["svc"])
	})
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	extractor := func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(ctxKey{}).(string); ok {
			return slog.String("tenant_id", v), true
		}
		return slog.Attr{}, false
	}

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(extractor, nil),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "t-1")
	log.With("component", "test").WithGroup("g").InfoContext(ctx, "with tenant")

	out := buf.String()
	assert.Contains(t, out, `"tenant_id":"t-1"`)
	assert.Contains(t, out, `"component":"test"`)

	buf.Reset()
	log.InfoContext(context.Background(), "without tenant")
	assert.NotContains(t, buf.String(), "tenant_id")
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewFromConfig(logger.Config{
		Level:   "warn",
		Format:  "json",
		Env:     "production",
		Service: "saasadmin",
	}, logger.WithOutput(buf))

	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.Warn("kept")
	entry := decode(t, buf)
	assert.Equal(t, "saasadmin", entry["service"])
	assert.Equal(t, "production", entry["env"])
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("nonsense"))
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
	assert.Equal(t, slog.Attr{}, logger.Errors(nil, nil))
	assert.Len(t, logger.Errors(nil, errors.New("a"), errors.New("b")).Value.Group(), 2)

	assert.Equal(t, slog.Attr{}, logger.TenantID(""))
	assert.Equal(t, slog.String("tenant_id", "t1"), logger.TenantID("t1"))
	assert.Equal(t, slog.String("customer_id", "cus_1"), logger.CustomerID("cus_1"))
	assert.Equal(t, slog.String("secret_name", "API_KEY"), logger.SecretName("API_KEY"))
	assert.Equal(t, int64(1500), logger.Duration(1500*time.Millisecond).Value.Int64())
}
