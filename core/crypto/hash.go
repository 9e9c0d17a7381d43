package crypto

import (
	"encoding/binary"

	"github.com/NethermindEth/notewise/core/felt"
	"lukechampine.com/blake3"
)

// Hasher accumulates field elements into a Digest. Domains keep commitments of different kinds apart.
type Hasher struct {
	h *blake3.Hasher
}

func NewHasher(domain string) *Hasher {
	h := &Hasher{h: blake3.New(DigestBytes, nil)}
	return h.UpdateBytes([]byte(domain))
}

func (h *Hasher) Update(elems ...felt.Felt) *Hasher {
	for i := range elems {
		b := elems[i].Bytes()
		h.h.Write(b[:])
	}
	return h
}

func (h *Hasher) UpdateWord(words ...felt.Word) *Hasher {
	for i := range words {
		h.Update(words[i][:]...)
	}
	return h
}

func (h *Hasher) UpdateDigest(digests ...Digest) *Hasher {
	for i := range digests {
		h.Update(digests[i][:]...)
	}
	return h
}

// UpdateBytes absorbs a length-prefixed byte string.
func (h *Hasher) UpdateBytes(b []byte) *Hasher {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	h.h.Write(n[:])
	h.h.Write(b)
	return h
}

// Finish maps the 256-bit blake3 output onto four field elements.
func (h *Hasher) Finish() Digest {
	sum := h.h.Sum(nil)
	var d Digest
	for i := range d {
		d[i].SetUint64(binary.BigEndian.Uint64(sum[i*felt.Bytes:]))
	}
	return d
}

// HashElements hashes a sequence of field elements within domain.
func HashElements(domain string, elems ...felt.Felt) Digest {
	return NewHasher(domain).Update(elems...).Finish()
}

// Merge hashes two digests, the building block of note and recipient commitments.
func Merge(domain string, a, b Digest) Digest {
	return NewHasher(domain).UpdateDigest(a, b).Finish()
}
