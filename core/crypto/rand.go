package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/NethermindEth/notewise/core/felt"
)

// RandomCoin supplies the unpredictable words used as note serial numbers.
type RandomCoin interface {
	DrawWord() (felt.Word, error)
}

type systemCoin struct{}

// NewSystemRandomCoin draws from the operating system CSPRNG.
func NewSystemRandomCoin() RandomCoin {
	return systemCoin{}
}

func (systemCoin) DrawWord() (felt.Word, error) {
	var buf [DigestBytes]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return felt.Word{}, err
	}
	var w felt.Word
	for i := range w {
		w[i].SetUint64(binary.BigEndian.Uint64(buf[i*felt.Bytes:]))
	}
	return w, nil
}

// SeededRandomCoin is a deterministic hash-counter coin for reproducible runs.
type SeededRandomCoin struct {
	mu      sync.Mutex
	seed    felt.Word
	counter uint64
}

func NewSeededRandomCoin(seed felt.Word) *SeededRandomCoin {
	return &SeededRandomCoin{seed: seed}
}

func (c *SeededRandomCoin) DrawWord() (felt.Word, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter++
	return NewHasher("random-coin").UpdateWord(c.seed).Update(felt.New(c.counter)).Finish().Word(), nil
}
