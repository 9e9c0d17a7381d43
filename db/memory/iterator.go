package memory

import (
	"errors"
	"slices"

	"github.com/NethermindEth/notewise/db"
)

var errExhausted = errors.New("iterator is exhausted")

var _ db.Iterator = (*iterator)(nil)

type record struct {
	key   []byte
	value []byte
}

// iterator walks a sorted copy of a bucket taken when it was created.
type iterator struct {
	pos     int
	records []record
}

func (i *iterator) current() (record, bool) {
	if i.pos < 0 || i.pos >= len(i.records) {
		return record{}, false
	}
	return i.records[i.pos], true
}

func (i *iterator) Next() bool {
	if i.pos < len(i.records) {
		i.pos++
	}
	return i.pos < len(i.records)
}

func (i *iterator) Key() []byte {
	r, ok := i.current()
	if !ok {
		return nil
	}
	return r.key
}

func (i *iterator) Value() ([]byte, error) {
	r, ok := i.current()
	if !ok {
		return nil, errExhausted
	}
	return slices.Clone(r.value), nil
}

func (i *iterator) Close() error {
	i.records = nil
	i.pos = 0
	return nil
}
