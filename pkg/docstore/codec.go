package docstore

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var zeroDateTime = bson.NewDateTimeFromTime(time.Time{})

// encode converts v into its full stored form.
func encode(v any) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return doc, nil
}

// encodeUpdate converts v into a partial update: bookkeeping fields and
// fields holding a zero value are dropped.
func encodeUpdate(v any) (bson.M, error) {
	doc, err := encode(v)
	if err != nil {
		return nil, err
	}
	for k, val := range doc {
		switch k {
		case FieldKey, FieldScope, FieldCreatedAt, FieldUpdatedAt, "_id":
			delete(doc, k)
			continue
		}
		if isZero(val) {
			delete(doc, k)
		}
	}
	return doc, nil
}

func decode[T any](doc bson.M) (*T, error) {
	delete(doc, "_id")
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	var v T
	if err := bson.Unmarshal(data, &v); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return &v, nil
}

func isZero(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bson.DateTime:
		return val == zeroDateTime
	case bson.D:
		return len(val) == 0
	case bson.M:
		return len(val) == 0
	case bson.A:
		return len(val) == 0
	}
	return false
}
