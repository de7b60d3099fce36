// Package docstore is a small tenant-aware document store.
//
// Collection[T] stores bson-tagged structs. Each stored document carries two
// bookkeeping fields next to the struct's own fields:
//
//	_key    the document id chosen by the caller (or generated)
//	_scope  the tenant id taken from the request context, empty for global collections
//
// Every read and write filters on both, so a scoped collection never sees
// another tenant's documents and the scope can never be supplied by input.
// A struct field tagged `bson:"_key"` receives the document id on decode.
//
// Writes stamp created_at and updated_at. Add and Set write the whole
// document; Update writes only fields holding a non-zero value and refreshes
// updated_at.
//
// Storage sits behind the Driver interface: MongoDriver for production,
// MemoryDriver for tests and local runs, and DisabledDriver for deployments
// without a datastore, where every call fails with ErrUnavailable.
package docstore
