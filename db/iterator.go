package db

import (
	"errors"
	"io"
)

// Iterator walks the records of one bucket in ascending key order. Keys are returned without
// the bucket prefix. It must be closed after use and is not safe for concurrent use.
type Iterator interface {
	io.Closer

	// Next advances to the next record and reports whether there is one.
	Next() bool
	Key() []byte
	Value() ([]byte, error)
}

// ForEach calls fn for every record of bucket and stops at the first error.
func ForEach(store Iterable, bucket Bucket, fn func(key, value []byte) error) error {
	it, err := store.NewBucketIterator(bucket)
	if err != nil {
		return err
	}
	for it.Next() {
		v, err := it.Value()
		if err == nil {
			err = fn(it.Key(), v)
		}
		if err != nil {
			return errors.Join(err, it.Close())
		}
	}
	return it.Close()
}
