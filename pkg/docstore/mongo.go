package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoDriver runs operations against a MongoDB database.
type MongoDriver struct {
	db *mongo.Database
}

func NewMongoDriver(db *mongo.Database) *MongoDriver {
	if db == nil {
		panic("docstore: mongo database is required")
	}
	return &MongoDriver{db: db}
}

func (d *MongoDriver) Available() bool { return true }

func (d *MongoDriver) InsertOne(ctx context.Context, collection string, doc bson.M) error {
	_, err := d.db.Collection(collection).InsertOne(ctx, doc)
	return translate(err)
}

func (d *MongoDriver) ReplaceOne(ctx context.Context, collection string, filter, doc bson.M, upsert bool) (bool, error) {
	res, err := d.db.Collection(collection).ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(upsert))
	if err != nil {
		return false, translate(err)
	}
	return res.MatchedCount > 0, nil
}

func (d *MongoDriver) UpdateOne(ctx context.Context, collection string, filter, set bson.M) (bool, error) {
	res, err := d.db.Collection(collection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, translate(err)
	}
	return res.MatchedCount > 0, nil
}

func (d *MongoDriver) FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error) {
	var doc bson.M
	if err := d.db.Collection(collection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc, nil
}

func (d *MongoDriver) Find(ctx context.Context, collection string, filter bson.M) ([]bson.M, error) {
	cur, err := d.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, translate(err)
	}

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}
	return docs, nil
}

func (d *MongoDriver) DeleteOne(ctx context.Context, collection string, filter bson.M) (bool, error) {
	res, err := d.db.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return false, translate(err)
	}
	return res.DeletedCount > 0, nil
}

func (d *MongoDriver) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	n, err := d.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (d *MongoDriver) EnsureUniqueIndex(ctx context.Context, collection string, fields ...string) error {
	keys := make(bson.D, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}

	_, err := d.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true),
	})
	return translate(err)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicateKey, err)
	}
	return err
}
