package pebble

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NethermindEth/notewise/db"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	pkgerrors "github.com/pkg/errors"
)

var _ db.KeyValueStore = (*DB)(nil)

type DB struct {
	pebble    *pebble.DB
	closeLock sync.RWMutex
	closed    bool
	listener  db.EventListener
}

// New opens a new database at the given path
func New(path string, logger pebble.Logger) (*DB, error) {
	return newPebble(path, &pebble.Options{Logger: logger})
}

// NewMem opens a new in-memory database
func NewMem() (*DB, error) {
	return newPebble("", &pebble.Options{FS: vfs.NewMem()})
}

// NewMemTest opens a new in-memory database and closes it when the test finishes
func NewMemTest(t testing.TB) *DB {
	memDB, err := NewMem()
	if err != nil {
		t.Fatalf("create in-memory db: %v", err)
	}
	t.Cleanup(func() {
		if err := memDB.Close(); err != nil && !errors.Is(err, pebble.ErrClosed) {
			t.Errorf("close in-memory db: %v", err)
		}
	})
	return memDB
}

func newPebble(path string, options *pebble.Options) (*DB, error) {
	pDB, err := pebble.Open(path, options)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open pebble at %q", path)
	}
	return &DB{pebble: pDB, listener: &db.SelectiveListener{}}, nil
}

// WithListener registers an EventListener
func (d *DB) WithListener(listener db.EventListener) db.KeyValueStore {
	d.listener = listener
	return d
}

func (d *DB) Has(key []byte) (bool, error) {
	defer d.observe(false, time.Now())
	_, closer, err := d.pebble.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, closer.Close()
}

func (d *DB) Get(key []byte, cb func(value []byte) error) error {
	defer d.observe(false, time.Now())
	val, closer, err := d.pebble.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return db.ErrKeyNotFound
		}
		return err
	}

	if err := cb(val); err != nil {
		return pkgerrors.WithStack(errors.Join(err, closer.Close()))
	}
	return closer.Close()
}

func (d *DB) Put(key, value []byte) error {
	defer d.observe(true, time.Now())
	return d.pebble.Set(key, value, pebble.Sync)
}

func (d *DB) Delete(key []byte) error {
	defer d.observe(true, time.Now())
	return d.pebble.Delete(key, pebble.Sync)
}

func (d *DB) DeleteRange(start, end []byte) error {
	defer d.observe(true, time.Now())
	return d.pebble.DeleteRange(start, end, pebble.Sync)
}

func (d *DB) NewBatch() db.Batch {
	return &batch{batch: d.pebble.NewBatch(), db: d}
}

func (d *DB) NewBucketIterator(bucket db.Bucket) (db.Iterator, error) {
	defer d.observe(false, time.Now())
	iter, err := d.pebble.NewIter(&pebble.IterOptions{
		LowerBound: bucket.Key(),
		UpperBound: bucket.UpperBound(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "new pebble iterator")
	}
	return &iterator{iter: iter}, nil
}

// Close : see io.Closer.Close
func (d *DB) Close() error {
	d.closeLock.Lock()
	defer d.closeLock.Unlock()

	if d.closed {
		return pebble.ErrClosed
	}
	d.closed = true
	return d.pebble.Close()
}

func (d *DB) observe(write bool, start time.Time) {
	d.listener.OnIO(write, time.Since(start))
}
