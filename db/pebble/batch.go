package pebble

import (
	"time"

	"github.com/NethermindEth/notewise/db"
	"github.com/cockroachdb/pebble"
	pkgerrors "github.com/pkg/errors"
)

var _ db.Batch = (*batch)(nil)

// batch replays its writes in order on commit, so a later write to a key wins.
type batch struct {
	batch *pebble.Batch
	db    *DB
	size  int
}

func (b *batch) Put(key, value []byte) error {
	if err := b.batch.Set(key, value, pebble.Sync); err != nil {
		return err
	}
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	if err := b.batch.Delete(key, pebble.Sync); err != nil {
		return err
	}
	b.size += len(key)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	defer b.db.observe(true, time.Now())
	b.db.closeLock.RLock()
	defer b.db.closeLock.RUnlock()

	if b.db.closed {
		return db.ErrClosed
	}

	if err := b.batch.Commit(pebble.Sync); err != nil {
		return pkgerrors.Wrap(err, "commit batch")
	}
	b.Reset()
	return nil
}

func (b *batch) Reset() {
	b.batch.Reset()
	b.size = 0
}
