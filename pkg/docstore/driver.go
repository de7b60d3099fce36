package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Reserved document fields.
const (
	FieldKey       = "_key"
	FieldScope     = "_scope"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Driver executes raw document operations against one backend.
// Filters are top-level equality matches.
type Driver interface {
	// Available reports whether the backend is provisioned.
	Available() bool

	// InsertOne fails with ErrDuplicateKey on a unique index conflict.
	InsertOne(ctx context.Context, collection string, doc bson.M) error
	// ReplaceOne replaces the first match, inserting doc when upsert is set
	// and nothing matched.
	ReplaceOne(ctx context.Context, collection string, filter, doc bson.M, upsert bool) (matched bool, err error)
	// UpdateOne sets the given fields on the first match.
	UpdateOne(ctx context.Context, collection string, filter, set bson.M) (matched bool, err error)
	// FindOne returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error)
	Find(ctx context.Context, collection string, filter bson.M) ([]bson.M, error)
	DeleteOne(ctx context.Context, collection string, filter bson.M) (deleted bool, err error)
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
	EnsureUniqueIndex(ctx context.Context, collection string, fields ...string) error
}
