package db

import "io"

// Represents a data store that can read from the database
type KeyValueReader interface {
	// Checks if a key exists in the data store
	Has(key []byte) (bool, error)
	// Retrieves a value for a given key if it exists
	Get(key []byte, cb func(value []byte) error) error
}

// Represents a data store that can write to the database
type KeyValueWriter interface {
	// Inserts a given value into the data store
	Put(key []byte, value []byte) error
	// Deletes a given key from the data store
	Delete(key []byte) error
}

// Represents a data store that can delete a range of keys from the database
type KeyValueRangeDeleter interface {
	// Deletes a range of keys from start (inclusive) to end (exclusive)
	DeleteRange(start, end []byte) error
}

// A write-only store that gathers changes in-memory and writes them in a single atomic operation
type Batch interface {
	KeyValueWriter
	// Retrieves the value size of the data stored in the batch for writing
	Size() int
	// Flushes the data stored to the database
	Write() error
	// Resets the batch
	Reset()
}

type Batcher interface {
	NewBatch() Batch
}

type Iterable interface {
	// NewBucketIterator iterates over a snapshot of the records in bucket.
	NewBucketIterator(bucket Bucket) (Iterator, error)
}

// Represents a key-value data store that can handle different operations
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	KeyValueRangeDeleter
	Batcher
	Iterable
	Listener
	io.Closer
}

type Listener interface {
	WithListener(listener EventListener) KeyValueStore
}

// Update runs fn against a batch and writes it if fn succeeds.
func Update(store KeyValueStore, fn func(Batch) error) error {
	batch := store.NewBatch()
	if err := fn(batch); err != nil {
		batch.Reset()
		return err
	}
	return batch.Write()
}
