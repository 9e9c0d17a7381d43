package pebble

import (
	"github.com/NethermindEth/notewise/db"
	"github.com/cockroachdb/pebble"
	pkgerrors "github.com/pkg/errors"
)

var _ db.Iterator = (*iterator)(nil)

// iterator is bounded to a single bucket; Key strips the one byte bucket prefix.
type iterator struct {
	iter    *pebble.Iterator
	started bool
}

func (i *iterator) Next() bool {
	if !i.started {
		i.started = true
		return i.iter.First()
	}
	return i.iter.Next()
}

func (i *iterator) Key() []byte {
	if !i.iter.Valid() {
		return nil
	}
	return i.iter.Key()[1:]
}

func (i *iterator) Value() ([]byte, error) {
	v, err := i.iter.ValueAndErr()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read pebble value")
	}
	return v, nil
}

func (i *iterator) Close() error {
	return i.iter.Close()
}
