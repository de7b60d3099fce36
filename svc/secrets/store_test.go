package secrets_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/saasadmin/pkg/docstore"
	"github.com/dmitrymomot/saasadmin/pkg/encryption"
	"github.com/dmitrymomot/saasadmin/pkg/tenant"
	"github.com/dmitrymomot/saasadmin/svc/secrets"
)

// countingDriver records write calls made through it.
type countingDriver struct {
	*docstore.MemoryDriver
	writes atomic.Int32
}

func (d *countingDriver) InsertOne(ctx context.Context, c string, doc bson.M) error {
	d.writes.Add(1)
	return d.MemoryDriver.InsertOne(ctx, c, doc)
}

func (d *countingDriver) ReplaceOne(ctx context.Context, c string, f, doc bson.M, upsert bool) (bool, error) {
	d.writes.Add(1)
	return d.MemoryDriver.ReplaceOne(ctx, c, f, doc, upsert)
}

func (d *countingDriver) UpdateOne(ctx context.Context, c string, f, set bson.M) (bool, error) {
	d.writes.Add(1)
	return d.MemoryDriver.UpdateOne(ctx, c, f, set)
}

func newCipher(t *testing.T) *encryption.Service {
	t.Helper()
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	svc, err := encryption.New(encryption.Config{MasterKey: key})
	require.NoError(t, err)
	return svc
}

func ctxFor(tenantID string) context.Context {
	return tenant.WithIdentity(context.Background(), &tenant.Identity{TenantID: tenantID})
}

var stripeKey = secrets.Input{
	Name:          "STRIPE_KEY",
	DisplayName:   "Stripe key",
	EnvironmentID: "production",
	Token:         "sk_live_123",
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	driver := docstore.NewMemoryDriver()
	store := secrets.NewStore(driver, newCipher(t))
	ctx := ctxFor("t1")

	id, err := store.SaveSecret(ctx, stripeKey)
	require.NoError(t, err)
	assert.Equal(t, "STRIPE_KEY", id)

	got, err := store.GetSecret(ctx, "STRIPE_KEY")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, secrets.View{
		Name:          "STRIPE_KEY",
		DisplayName:   "Stripe key",
		EnvironmentID: "production",
		Token:         "sk_live_123",
	}, *got)

	raw, err := driver.FindOne(context.Background(), secrets.Collection, bson.M{docstore.FieldKey: "STRIPE_KEY"})
	require.NoError(t, err)
	assert.NotEqual(t, "sk_live_123", raw["encryptedToken"], "only ciphertext is stored")
	assert.NotContains(t, raw, "token")
}

func TestStore_SaveReplaces(t *testing.T) {
	t.Parallel()

	store := secrets.NewStore(docstore.NewMemoryDriver(), newCipher(t))
	ctx := ctxFor("t1")

	_, err := store.SaveSecret(ctx, stripeKey)
	require.NoError(t, err)

	updated := stripeKey
	updated.Token = "sk_live_456"
	updated.DisplayName = "Rotated"
	_, err = store.SaveSecret(ctx, updated)
	require.NoError(t, err)

	all, err := store.GetAllSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "sk_live_456", all[0].Token)
	assert.Equal(t, "Rotated", all[0].DisplayName)
}

func TestStore_Missing(t *testing.T) {
	t.Parallel()

	store := secrets.NewStore(docstore.NewMemoryDriver(), newCipher(t))
	ctx := ctxFor("t1")

	got, err := store.GetSecret(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err := store.SecretExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, store.DeleteSecret(ctx, "nope"), secrets.ErrSecretNotFound)

	all, err := store.GetAllSecrets(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_ExistsAndDelete(t *testing.T) {
	t.Parallel()

	store := secrets.NewStore(docstore.NewMemoryDriver(), newCipher(t))
	ctx := ctxFor("t1")

	_, err := store.SaveSecret(ctx, stripeKey)
	require.NoError(t, err)

	exists, err := store.SecretExists(ctx, "STRIPE_KEY")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.DeleteSecret(ctx, "STRIPE_KEY"))

	exists, err = store.SecretExists(ctx, "STRIPE_KEY")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_TenantIsolation(t *testing.T) {
	t.Parallel()

	store := secrets.NewStore(docstore.NewMemoryDriver(), newCipher(t))
	a, b := ctxFor("tenant-a"), ctxFor("tenant-b")

	_, err := store.SaveSecret(a, stripeKey)
	require.NoError(t, err)

	got, err := store.GetSecret(b, "STRIPE_KEY")
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := store.GetAllSecrets(b)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, store.DeleteSecret(b, "STRIPE_KEY"), secrets.ErrSecretNotFound)

	got, err = store.GetSecret(a, "STRIPE_KEY")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestStore_EncryptionUnavailable(t *testing.T) {
	t.Parallel()

	unavailable, err := encryption.New(encryption.Config{})
	require.NoError(t, err)

	driver := &countingDriver{MemoryDriver: docstore.NewMemoryDriver()}
	store := secrets.NewStore(driver, unavailable)
	ctx := ctxFor("t1")

	_, err = store.SaveSecret(ctx, stripeKey)
	assert.ErrorIs(t, err, secrets.ErrEncryptionUnavailable)
	assert.Zero(t, driver.writes.Load())

	_, err = store.GetSecret(ctx, "STRIPE_KEY")
	assert.ErrorIs(t, err, secrets.ErrEncryptionUnavailable)
	_, err = store.GetAllSecrets(ctx)
	assert.ErrorIs(t, err, secrets.ErrEncryptionUnavailable)

	exists, err := store.SecretExists(ctx, "STRIPE_KEY")
	require.NoError(t, err, "existence checks do not need encryption")
	assert.False(t, exists)
}

func TestStore_DatastoreUnavailable(t *testing.T) {
	t.Parallel()

	unavailable, err := encryption.New(encryption.Config{})
	require.NoError(t, err)

	store := secrets.NewStore(docstore.DisabledDriver{}, unavailable)
	ctx := ctxFor("t1")

	_, err = store.SaveSecret(ctx, stripeKey)
	assert.ErrorIs(t, err, docstore.ErrUnavailable, "datastore is checked before encryption")
	_, err = store.SecretExists(ctx, "x")
	assert.ErrorIs(t, err, docstore.ErrUnavailable)
	assert.ErrorIs(t, store.DeleteSecret(ctx, "x"), docstore.ErrUnavailable)
}

func TestStore_DecryptionFailure(t *testing.T) {
	t.Parallel()

	driver := docstore.NewMemoryDriver()
	ctx := ctxFor("t1")

	_, err := secrets.NewStore(driver, newCipher(t)).SaveSecret(ctx, stripeKey)
	require.NoError(t, err)

	rotated := secrets.NewStore(driver, newCipher(t))

	_, err = rotated.GetSecret(ctx, "STRIPE_KEY")
	require.ErrorIs(t, err, secrets.ErrDecryption)
	assert.Contains(t, err.Error(), "STRIPE_KEY")
	assert.NotContains(t, err.Error(), "sk_live_123")

	_, err = rotated.GetAllSecrets(ctx)
	assert.ErrorIs(t, err, secrets.ErrDecryption)
}

func TestStore_CiphertextIsBoundToTenantAndName(t *testing.T) {
	t.Parallel()

	driver := docstore.NewMemoryDriver()
	store := secrets.NewStore(driver, newCipher(t))
	ctx := context.Background()

	_, err := store.SaveSecret(ctxFor("t1"), stripeKey)
	require.NoError(t, err)

	doc, err := driver.FindOne(ctx, secrets.Collection, bson.M{docstore.FieldScope: "t1", docstore.FieldKey: "STRIPE_KEY"})
	require.NoError(t, err)

	copied := bson.M{}
	for k, v := range doc {
		copied[k] = v
	}
	delete(copied, "_id")
	copied[docstore.FieldScope] = "t2"
	require.NoError(t, driver.InsertOne(ctx, secrets.Collection, copied))

	_, err = store.GetSecret(ctxFor("t2"), "STRIPE_KEY")
	assert.ErrorIs(t, err, secrets.ErrDecryption)

	renamed := bson.M{}
	for k, v := range doc {
		renamed[k] = v
	}
	delete(renamed, "_id")
	renamed[docstore.FieldKey] = "OTHER"
	require.NoError(t, driver.InsertOne(ctx, secrets.Collection, renamed))

	_, err = store.GetSecret(ctxFor("t1"), "OTHER")
	assert.ErrorIs(t, err, secrets.ErrDecryption)

	got, err := store.GetSecret(ctxFor("t1"), "STRIPE_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk_live_123", got.Token)
}

func TestStore_Validation(t *testing.T) {
	t.Parallel()

	driver := &countingDriver{MemoryDriver: docstore.NewMemoryDriver()}
	store := secrets.NewStore(driver, newCipher(t))

	in := stripeKey
	in.Token = ""
	_, err := store.SaveSecret(ctxFor("t1"), in)
	require.ErrorIs(t, err, secrets.ErrInvalidSecret)
	assert.Contains(t, err.Error(), "token")
	assert.Zero(t, driver.writes.Load())
}

func TestStore_RequiresTenant(t *testing.T) {
	t.Parallel()

	store := secrets.NewStore(docstore.NewMemoryDriver(), newCipher(t))
	_, err := store.SaveSecret(context.Background(), stripeKey)
	assert.ErrorIs(t, err, docstore.ErrNoTenantScope)
}
