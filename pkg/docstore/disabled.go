package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DisabledDriver stands in when no datastore is provisioned.
type DisabledDriver struct{}

func (DisabledDriver) Available() bool { return false }

func (DisabledDriver) InsertOne(context.Context, string, bson.M) error { return ErrUnavailable }

func (DisabledDriver) ReplaceOne(context.Context, string, bson.M, bson.M, bool) (bool, error) {
	return false, ErrUnavailable
}

func (DisabledDriver) UpdateOne(context.Context, string, bson.M, bson.M) (bool, error) {
	return false, ErrUnavailable
}

func (DisabledDriver) FindOne(context.Context, string, bson.M) (bson.M, error) {
	return nil, ErrUnavailable
}

func (DisabledDriver) Find(context.Context, string, bson.M) ([]bson.M, error) {
	return nil, ErrUnavailable
}

func (DisabledDriver) DeleteOne(context.Context, string, bson.M) (bool, error) {
	return false, ErrUnavailable
}

func (DisabledDriver) Count(context.Context, string, bson.M) (int64, error) {
	return 0, ErrUnavailable
}

func (DisabledDriver) EnsureUniqueIndex(context.Context, string, ...string) error {
	return ErrUnavailable
}
