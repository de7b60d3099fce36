package billing_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/saasadmin/pkg/docstore"
	"github.com/dmitrymomot/saasadmin/svc/billing"
)

func TestCustomerStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("one mapping per tenant", func(t *testing.T) {
		t.Parallel()
		store := billing.NewCustomerStore(docstore.NewMemoryDriver())
		require.NoError(t, store.EnsureIndexes(ctx))

		require.NoError(t, store.Create(ctx, &billing.CustomerMapping{ID: "cus_1", TenantID: "t1", Email: "a@acme.test"}))
		err := store.Create(ctx, &billing.CustomerMapping{ID: "cus_2", TenantID: "t1", Email: "a@acme.test"})
		require.ErrorIs(t, err, docstore.ErrDuplicateKey)

		m, err := store.FindByTenant(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", m.ID)
		assert.False(t, m.CreatedAt.IsZero())
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()
		store := billing.NewCustomerStore(docstore.NewMemoryDriver())

		m, err := store.FindByTenant(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("duplicate mappings are reported", func(t *testing.T) {
		t.Parallel()
		reg := prometheus.NewRegistry()
		store := billing.NewCustomerStore(docstore.NewMemoryDriver(),
			billing.WithStoreMetrics(billing.NewMetrics(reg)))

		require.NoError(t, store.Create(ctx, &billing.CustomerMapping{ID: "cus_1", TenantID: "t1"}))
		require.NoError(t, store.Create(ctx, &billing.CustomerMapping{ID: "cus_2", TenantID: "t1"}))

		m, err := store.FindByTenant(ctx, "t1")
		require.NoError(t, err)
		require.NotNil(t, m)
		assertCounter(t, reg, "saasadmin_billing_duplicate_mappings_total",
			"Lookups that found more than one customer mapping for a tenant.", "", 1)
	})

	t.Run("update email", func(t *testing.T) {
		t.Parallel()
		store := billing.NewCustomerStore(docstore.NewMemoryDriver())

		require.NoError(t, store.Create(ctx, &billing.CustomerMapping{ID: "cus_1", TenantID: "t1", Email: "a@acme.test"}))
		require.NoError(t, store.UpdateEmail(ctx, "cus_1", "b@acme.test"))

		m, err := store.FindByTenant(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "b@acme.test", m.Email)
		assert.Equal(t, "t1", m.TenantID)

		require.ErrorIs(t, store.UpdateEmail(ctx, "cus_missing", "b@acme.test"), docstore.ErrNotFound)
	})

	t.Run("unavailable datastore", func(t *testing.T) {
		t.Parallel()
		store := billing.NewCustomerStore(docstore.DisabledDriver{})

		_, err := store.FindByTenant(ctx, "t1")
		require.ErrorIs(t, err, docstore.ErrUnavailable)
	})
}
