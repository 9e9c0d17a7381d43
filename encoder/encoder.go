// Package encoder is the canonical CBOR codec for records persisted by the store.
package encoder

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
	pkgerrors "github.com/pkg/errors"
)

type modes struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var loadModes = sync.OnceValue(func() modes {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{
		MaxArrayElements: 1 << 20,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return modes{enc: enc, dec: dec}
})

// Marshal encodes v deterministically: equal values always produce equal bytes.
func Marshal(v any) ([]byte, error) {
	b, err := loadModes().enc.Marshal(v)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "encode %T", v)
	}
	return b, nil
}

func Unmarshal(b []byte, v any) error {
	if err := loadModes().dec.Unmarshal(b, v); err != nil {
		return pkgerrors.Wrapf(err, "decode %T", v)
	}
	return nil
}

// Decode unmarshals b into a fresh T.
func Decode[T any](b []byte) (*T, error) {
	v := new(T)
	if err := Unmarshal(b, v); err != nil {
		return nil, err
	}
	return v, nil
}
