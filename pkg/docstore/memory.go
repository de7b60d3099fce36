package docstore

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryDriver keeps documents in process memory. Documents are stored in
// encoded form so callers never share maps with the store. It honours
// unique indexes created through EnsureUniqueIndex.
type MemoryDriver struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	docs    []bson.Raw
	indexes [][]string
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{collections: make(map[string]*memCollection)}
}

func (d *MemoryDriver) Available() bool { return true }

func (d *MemoryDriver) InsertOne(ctx context.Context, collection string, doc bson.M) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.collection(collection)
	stored, err := unmarshalRaw(raw)
	if err != nil {
		return err
	}
	if err := c.checkUnique(stored, -1); err != nil {
		return err
	}
	c.docs = append(c.docs, raw)
	return nil
}

func (d *MemoryDriver) ReplaceOne(ctx context.Context, collection string, filter, doc bson.M, upsert bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return false, errors.Join(ErrEncode, err)
	}
	stored, err := unmarshalRaw(raw)
	if err != nil {
		return false, err
	}
	f, err := normalize(filter)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.collection(collection)
	idx, err := c.indexOf(f)
	if err != nil {
		return false, err
	}
	if idx < 0 && !upsert {
		return false, nil
	}
	if err := c.checkUnique(stored, idx); err != nil {
		return false, err
	}

	if idx < 0 {
		c.docs = append(c.docs, raw)
		return false, nil
	}
	c.docs[idx] = raw
	return true, nil
}

func (d *MemoryDriver) UpdateOne(ctx context.Context, collection string, filter, set bson.M) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	f, err := normalize(filter)
	if err != nil {
		return false, err
	}
	s, err := normalize(set)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.collection(collection)
	idx, err := c.indexOf(f)
	if err != nil || idx < 0 {
		return false, err
	}

	current, err := unmarshalRaw(c.docs[idx])
	if err != nil {
		return false, err
	}
	for k, v := range s {
		current[k] = v
	}
	if err := c.checkUnique(current, idx); err != nil {
		return false, err
	}

	raw, err := bson.Marshal(current)
	if err != nil {
		return false, errors.Join(ErrEncode, err)
	}
	c.docs[idx] = raw
	return true, nil
}

func (d *MemoryDriver) FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error) {
	docs, err := d.find(ctx, collection, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (d *MemoryDriver) Find(ctx context.Context, collection string, filter bson.M) ([]bson.M, error) {
	return d.find(ctx, collection, filter, 0)
}

func (d *MemoryDriver) DeleteOne(ctx context.Context, collection string, filter bson.M) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f, err := normalize(filter)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.collection(collection)
	idx, err := c.indexOf(f)
	if err != nil || idx < 0 {
		return false, err
	}
	c.docs = slices.Delete(c.docs, idx, idx+1)
	return true, nil
}

func (d *MemoryDriver) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	docs, err := d.find(ctx, collection, filter, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (d *MemoryDriver) EnsureUniqueIndex(ctx context.Context, collection string, fields ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.collection(collection)
	for _, idx := range c.indexes {
		if slices.Equal(idx, fields) {
			return nil
		}
	}
	c.indexes = append(c.indexes, slices.Clone(fields))

	// Mirror Mongo: building a unique index over conflicting data fails.
	for i, raw := range c.docs {
		doc, err := unmarshalRaw(raw)
		if err != nil {
			return err
		}
		if err := c.checkUnique(doc, i); err != nil {
			c.indexes = c.indexes[:len(c.indexes)-1]
			return err
		}
	}
	return nil
}

func (d *MemoryDriver) find(ctx context.Context, collection string, filter bson.M, limit int) ([]bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := normalize(filter)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.collections[collection]
	if !ok {
		return nil, nil
	}

	var out []bson.M
	for _, raw := range c.docs {
		doc, err := unmarshalRaw(raw)
		if err != nil {
			return nil, err
		}
		if matches(doc, f) {
			out = append(out, doc)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// collection must be called with d.mu held for writing.
func (d *MemoryDriver) collection(name string) *memCollection {
	c, ok := d.collections[name]
	if !ok {
		c = &memCollection{}
		d.collections[name] = c
	}
	return c
}

func (c *memCollection) indexOf(filter bson.M) (int, error) {
	for i, raw := range c.docs {
		doc, err := unmarshalRaw(raw)
		if err != nil {
			return -1, err
		}
		if matches(doc, filter) {
			return i, nil
		}
	}
	return -1, nil
}

// checkUnique reports ErrDuplicateKey when doc collides with any stored
// document other than the one at position skip. Documents missing an
// indexed field are not constrained.
func (c *memCollection) checkUnique(doc bson.M, skip int) error {
	for _, fields := range c.indexes {
		want := bson.M{}
		complete := true
		for _, f := range fields {
			v, ok := doc[f]
			if !ok {
				complete = false
				break
			}
			want[f] = v
		}
		if !complete {
			continue
		}

		for i, raw := range c.docs {
			if i == skip {
				continue
			}
			other, err := unmarshalRaw(raw)
			if err != nil {
				return err
			}
			if matches(other, want) {
				return ErrDuplicateKey
			}
		}
	}
	return nil
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// normalize round-trips m through BSON so its values have the same Go
// types as values read back from stored documents.
func normalize(m bson.M) (bson.M, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return unmarshalRaw(raw)
}

func unmarshalRaw(raw []byte) (bson.M, error) {
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return doc, nil
}
