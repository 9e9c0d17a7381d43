package memory

import (
	"slices"
	"time"

	"github.com/NethermindEth/notewise/db"
)

var _ db.Batch = (*batch)(nil)

// pending is the last write to a key; a nil pending value is a delete.
type pending struct {
	value []byte
}

type batch struct {
	db      *Database
	pending map[string]*pending
	size    int
}

func newBatch(d *Database) *batch {
	return &batch{db: d, pending: make(map[string]*pending)}
}

func (b *batch) Put(key, value []byte) error {
	b.pending[string(key)] = &pending{value: slices.Clone(value)}
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.pending[string(key)] = nil
	b.size += len(key)
	return nil
}

// Size counts every write made since the last reset, including overwritten ones.
func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	defer b.db.observe(true, time.Now())
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	if b.db.db == nil {
		return db.ErrClosed
	}
	for key, p := range b.pending {
		if p == nil {
			delete(b.db.db, key)
			continue
		}
		b.db.db[key] = p.value
	}
	b.Reset()
	return nil
}

func (b *batch) Reset() {
	clear(b.pending)
	b.size = 0
}
