package asset

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/notewise/core/felt"
)

const (
	maxSymbolLen   = 6
	symbolAlphabet = 26
)

var ErrInvalidTokenSymbol = errors.New("token symbol must be 1 to 6 uppercase letters")

// TokenSymbol is a short ticker packed into a single field element.
type TokenSymbol struct {
	text string
}

func NewTokenSymbol(s string) (TokenSymbol, error) {
	if len(s) == 0 || len(s) > maxSymbolLen {
		return TokenSymbol{}, fmt.Errorf("%w: %q", ErrInvalidTokenSymbol, s)
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return TokenSymbol{}, fmt.Errorf("%w: %q", ErrInvalidTokenSymbol, s)
		}
	}
	return TokenSymbol{text: s}, nil
}

func (t TokenSymbol) String() string {
	return t.text
}

// Felt encodes the symbol as base-26 digits followed by its length.
func (t TokenSymbol) Felt() felt.Felt {
	var v uint64
	for i := len(t.text) - 1; i >= 0; i-- {
		v = v*symbolAlphabet + uint64(t.text[i]-'A')
	}
	return felt.New(v*symbolAlphabet + uint64(len(t.text)))
}

func TokenSymbolFromFelt(f felt.Felt) (TokenSymbol, error) {
	v := f.Uint64()
	n := int(v % symbolAlphabet)
	v /= symbolAlphabet
	if n == 0 || n > maxSymbolLen {
		return TokenSymbol{}, ErrInvalidTokenSymbol
	}
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = byte('A' + v%symbolAlphabet)
		v /= symbolAlphabet
	}
	if v != 0 {
		return TokenSymbol{}, ErrInvalidTokenSymbol
	}
	return TokenSymbol{text: string(buf)}, nil
}
