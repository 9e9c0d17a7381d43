package felt

import "strings"

// WordSize is the number of field elements in a Word.
const WordSize = 4

// Word is a tuple of four field elements, the unit of account storage.
type Word [WordSize]Felt

var ZeroWord = Word{}

func NewWord(a, b, c, d uint64) Word {
	return Word{New(a), New(b), New(c), New(d)}
}

func (w *Word) Equal(x *Word) bool {
	for i := range w {
		if !w[i].Equal(&x[i]) {
			return false
		}
	}
	return true
}

func (w *Word) IsZero() bool {
	return w.Equal(&ZeroWord)
}

// Felts returns the elements of w as a slice.
func (w *Word) Felts() []Felt {
	return w[:]
}

func (w *Word) String() string {
	parts := make([]string, WordSize)
	for i := range w {
		parts[i] = w[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Uint64s returns the canonical values of the elements of w.
func (w *Word) Uint64s() [WordSize]uint64 {
	var out [WordSize]uint64
	for i := range w {
		out[i] = w[i].Uint64()
	}
	return out
}
