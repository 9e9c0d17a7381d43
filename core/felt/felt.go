package felt

import (
	"encoding/binary"
	"errors"
	"strings"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/fxamacker/cbor/v2"
)

// Felt is an element of the 64-bit Goldilocks field (p = 2^64 - 2^32 + 1).
type Felt struct {
	val goldilocks.Element
}

const (
	Bytes   = goldilocks.Bytes // number of bytes needed to represent a Element
	Modulus = uint64(18446744069414584321)
)

// zero felt constant
var (
	Zero = Felt{}
	One  = New(1)
)

var ErrInvalidFelt = errors.New("value is not a canonical field element")

func New(v uint64) Felt {
	var f Felt
	f.val.SetUint64(v)
	return f
}

// Impl returns the underlying field element type
func (z *Felt) Impl() *goldilocks.Element {
	return &z.val
}

// SetUint64 sets z to v reduced modulo p.
func (z *Felt) SetUint64(v uint64) *Felt {
	z.val.SetUint64(v)
	return z
}

// SetCanonical sets z to v and fails if v is not smaller than the modulus.
func (z *Felt) SetCanonical(v uint64) (*Felt, error) {
	if v >= Modulus {
		return z, ErrInvalidFelt
	}
	z.val.SetUint64(v)
	return z, nil
}

// Uint64 returns the canonical representation of z.
func (z *Felt) Uint64() uint64 {
	return z.val.Uint64()
}

// SetRandom forwards the call to underlying field element implementation
func (z *Felt) SetRandom() (*Felt, error) {
	_, err := z.val.SetRandom()
	return z, err
}

// SetString accepts decimal and 0x-prefixed hex strings.
func (z *Felt) SetString(number string) (*Felt, error) {
	_, err := z.val.SetString(number)
	return z, err
}

// String returns the 0x-prefixed hex representation of z
func (z *Felt) String() string {
	return "0x" + z.val.Text(16)
}

// Text forwards the call to underlying field element implementation
func (z *Felt) Text(base int) string {
	return z.val.Text(base)
}

// Equal forwards the call to underlying field element implementation
func (z *Felt) Equal(x *Felt) bool {
	return z.val.Equal(&x.val)
}

// IsZero forwards the call to underlying field element implementation
func (z *Felt) IsZero() bool {
	return z.val.IsZero()
}

// Cmp compares canonical values
func (z *Felt) Cmp(x *Felt) int {
	return z.val.Cmp(&x.val)
}

// Add forwards the call to underlying field element implementation
func (z *Felt) Add(x, y *Felt) *Felt {
	z.val.Add(&x.val, &y.val)
	return z
}

// Sub forwards the call to underlying field element implementation
func (z *Felt) Sub(x, y *Felt) *Felt {
	z.val.Sub(&x.val, &y.val)
	return z
}

// Mul forwards the call to underlying field element implementation
func (z *Felt) Mul(x, y *Felt) *Felt {
	z.val.Mul(&x.val, &y.val)
	return z
}

// Bytes returns the big-endian canonical encoding of z
func (z *Felt) Bytes() [Bytes]byte {
	var b [Bytes]byte
	binary.BigEndian.PutUint64(b[:], z.Uint64())
	return b
}

// SetBytes interprets e as a big-endian integer and reduces it modulo p
func (z *Felt) SetBytes(e []byte) *Felt {
	z.val.SetBytes(e)
	return z
}

// MarshalJSON encodes z as a hex string
func (z *Felt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + z.String() + `"`), nil
}

// UnmarshalJSON accepts numbers and strings as input.
func (z *Felt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" {
		return ErrInvalidFelt
	}
	_, err := z.SetString(s)
	return err
}

func (z Felt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(z.Uint64())
}

func (z *Felt) UnmarshalCBOR(data []byte) error {
	var v uint64
	if err := cbor.Unmarshal(data, &v); err != nil {
		return err
	}
	_, err := z.SetCanonical(v)
	return err
}
