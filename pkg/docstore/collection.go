package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/saasadmin/pkg/tenant"
)

// Collection is a typed view over one stored collection.
type Collection[T any] struct {
	driver Driver
	name   string
	global bool
	now    func() time.Time
	newID  func() string
}

// Option configures a Collection.
type Option func(*collectionOptions)

type collectionOptions struct {
	global bool
	now    func() time.Time
	newID  func() string
}

// Global disables tenant scoping. Documents are shared by all tenants.
func Global() Option {
	return func(o *collectionOptions) { o.global = true }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *collectionOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides generation of keys for Add without an explicit key.
func WithIDGenerator(gen func() string) Option {
	return func(o *collectionOptions) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// NewCollection binds name on driver.
func NewCollection[T any](driver Driver, name string, opts ...Option) *Collection[T] {
	if driver == nil {
		panic("docstore: driver is required")
	}
	if name == "" {
		panic("docstore: collection name is required")
	}

	o := &collectionOptions{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Collection[T]{
		driver: driver,
		name:   name,
		global: o.global,
		now:    o.now,
		newID:  o.newID,
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Available reports whether the underlying datastore is provisioned.
func (c *Collection[T]) Available() bool { return c.driver.Available() }

// EnsureIndexes creates the unique (_scope, _key) index.
func (c *Collection[T]) EnsureIndexes(ctx context.Context) error {
	if !c.driver.Available() {
		return ErrUnavailable
	}
	return c.driver.EnsureUniqueIndex(ctx, c.name, FieldScope, FieldKey)
}

// EnsureUniqueIndex creates an additional unique index over fields.
func (c *Collection[T]) EnsureUniqueIndex(ctx context.Context, fields ...string) error {
	if !c.driver.Available() {
		return ErrUnavailable
	}
	return c.driver.EnsureUniqueIndex(ctx, c.name, fields...)
}

// Add inserts v. The key is taken from the field tagged `bson:"_key"` when
// set, otherwise generated. It fails with ErrDuplicateKey when the key or
// another unique field is taken.
func (c *Collection[T]) Add(ctx context.Context, v *T) (string, error) {
	scope, err := c.scope(ctx)
	if err != nil {
		return "", err
	}

	doc, err := encode(v)
	if err != nil {
		return "", err
	}

	key, _ := doc[FieldKey].(string)
	if key == "" {
		key = c.newID()
	}
	c.stampCreate(doc, scope, key)

	if err := c.driver.InsertOne(ctx, c.name, doc); err != nil {
		return "", err
	}
	return key, nil
}

// Set writes v under key, replacing any existing document.
func (c *Collection[T]) Set(ctx context.Context, key string, v *T) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	scope, err := c.scope(ctx)
	if err != nil {
		return "", err
	}

	doc, err := encode(v)
	if err != nil {
		return "", err
	}
	c.stampCreate(doc, scope, key)

	if _, err := c.driver.ReplaceOne(ctx, c.name, c.filter(scope, key), doc, true); err != nil {
		return "", err
	}
	return key, nil
}

// Update applies the non-zero fields of v to the document stored under key.
func (c *Collection[T]) Update(ctx context.Context, key string, v *T) error {
	if key == "" {
		return ErrEmptyKey
	}
	scope, err := c.scope(ctx)
	if err != nil {
		return err
	}

	set, err := encodeUpdate(v)
	if err != nil {
		return err
	}
	set[FieldUpdatedAt] = c.now().UTC()

	matched, err := c.driver.UpdateOne(ctx, c.name, c.filter(scope, key), set)
	if err != nil {
		return err
	}
	if !matched {
		return ErrNotFound
	}
	return nil
}

// Get returns the document stored under key or ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, key string) (*T, error) {
	scope, err := c.scope(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := c.driver.FindOne(ctx, c.name, c.filter(scope, key))
	if err != nil {
		return nil, err
	}
	return decode[T](doc)
}

// GetOrNone is Get returning nil instead of ErrNotFound.
func (c *Collection[T]) GetOrNone(ctx context.Context, key string) (*T, error) {
	v, err := c.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func (c *Collection[T]) Exists(ctx context.Context, key string) (bool, error) {
	scope, err := c.scope(ctx)
	if err != nil {
		return false, err
	}

	n, err := c.driver.Count(ctx, c.name, c.filter(scope, key))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the document and reports whether it existed.
func (c *Collection[T]) Delete(ctx context.Context, key string) (bool, error) {
	scope, err := c.scope(ctx)
	if err != nil {
		return false, err
	}
	return c.driver.DeleteOne(ctx, c.name, c.filter(scope, key))
}

// GetAll returns every document in scope.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	scope, err := c.scope(ctx)
	if err != nil {
		return nil, err
	}
	return c.find(ctx, bson.M{FieldScope: scope})
}

// GetByField returns the documents in scope whose field equals value.
func (c *Collection[T]) GetByField(ctx context.Context, field string, value any) ([]T, error) {
	scope, err := c.scope(ctx)
	if err != nil {
		return nil, err
	}
	return c.find(ctx, bson.M{FieldScope: scope, field: value})
}

func (c *Collection[T]) find(ctx context.Context, filter bson.M) ([]T, error) {
	docs, err := c.driver.Find(ctx, c.name, filter)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// scope resolves the tenant scope and checks availability first, so an
// unprovisioned datastore reports ErrUnavailable regardless of the session.
func (c *Collection[T]) scope(ctx context.Context) (string, error) {
	if !c.driver.Available() {
		return "", ErrUnavailable
	}
	if c.global {
		return "", nil
	}
	id, ok := tenant.IDFromContext(ctx)
	if !ok {
		return "", ErrNoTenantScope
	}
	return id, nil
}

func (c *Collection[T]) filter(scope, key string) bson.M {
	return bson.M{FieldScope: scope, FieldKey: key}
}

func (c *Collection[T]) stampCreate(doc bson.M, scope, key string) {
	now := c.now().UTC()
	delete(doc, "_id")
	doc[FieldKey] = key
	doc[FieldScope] = scope
	doc[FieldCreatedAt] = now
	doc[FieldUpdatedAt] = now
}
