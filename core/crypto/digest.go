package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/NethermindEth/notewise/core/felt"
	"github.com/fxamacker/cbor/v2"
)

// DigestBytes is the width of a Digest in bytes.
const DigestBytes = felt.WordSize * felt.Bytes

var ErrInvalidDigest = errors.New("invalid digest")

// Digest is a commitment of four field elements. It identifies code, storage, notes and transactions.
type Digest felt.Word

var ZeroDigest = Digest{}

// Word returns d as a storage word.
func (d Digest) Word() felt.Word {
	return felt.Word(d)
}

func (d Digest) Equal(x Digest) bool {
	return d.Bytes() == x.Bytes()
}

func (d Digest) IsZero() bool {
	return d.Equal(ZeroDigest)
}

// Bytes returns the concatenated big-endian encodings of the four elements.
func (d Digest) Bytes() [DigestBytes]byte {
	var out [DigestBytes]byte
	for i := range d {
		b := d[i].Bytes()
		copy(out[i*felt.Bytes:], b[:])
	}
	return out
}

// Compare orders digests by their byte encoding.
func (d Digest) Compare(x Digest) int {
	a, b := d.Bytes(), x.Bytes()
	return bytes.Compare(a[:], b[:])
}

// Hex returns the 0x-prefixed, 64 character encoding of d.
func (d Digest) Hex() string {
	b := d.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

func (d Digest) String() string {
	return d.Hex()
}

// DigestFromBytes decodes a 32 byte encoding, rejecting non-canonical elements.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestBytes {
		return d, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDigest, DigestBytes, len(b))
	}
	for i := range d {
		var v uint64
		for _, c := range b[i*felt.Bytes : (i+1)*felt.Bytes] {
			v = v<<8 | uint64(c)
		}
		if _, err := d[i].SetCanonical(v); err != nil {
			return d, fmt.Errorf("%w: element %d: %v", ErrInvalidDigest, i, err)
		}
	}
	return d, nil
}

// DigestFromHex parses the output of Digest.Hex.
func DigestFromHex(s string) (Digest, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Digest{}, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	return DigestFromBytes(raw)
}

// MustDigestFromHex panics if s is not a valid digest.
func MustDigestFromHex(s string) Digest {
	d, err := DigestFromHex(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.Hex()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := DigestFromHex(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Digest) MarshalCBOR() ([]byte, error) {
	b := d.Bytes()
	return cbor.Marshal(b[:])
}

func (d *Digest) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := DigestFromBytes(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
