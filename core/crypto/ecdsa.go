package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/ecdsa"
	"lukechampine.com/blake3"
)

var ErrInvalidKey = errors.New("invalid auth key")

// GenerateAuthKey returns the serialised form of a fresh stark-curve ecdsa private key.
func GenerateAuthKey() ([]byte, error) {
	key, err := ecdsa.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return key.Bytes(), nil
}

func parsePrivateKey(secret []byte) (*ecdsa.PrivateKey, error) {
	key := new(ecdsa.PrivateKey)
	if _, err := key.SetBytes(secret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// PublicKey derives the serialised public key of secret.
func PublicKey(secret []byte) ([]byte, error) {
	key, err := parsePrivateKey(secret)
	if err != nil {
		return nil, err
	}
	return key.PublicKey.Bytes(), nil
}

// Sign signs the byte encoding of msg.
func Sign(secret []byte, msg Digest) ([]byte, error) {
	key, err := parsePrivateKey(secret)
	if err != nil {
		return nil, err
	}
	b := msg.Bytes()
	return key.Sign(b[:], blake3.New(DigestBytes, nil))
}

// Verify checks a signature produced by Sign.
func Verify(public []byte, msg Digest, sig []byte) (bool, error) {
	key := new(ecdsa.PublicKey)
	if _, err := key.SetBytes(public); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	b := msg.Bytes()
	return key.Verify(sig, b[:], blake3.New(DigestBytes, nil))
}
