package db

import "slices"

type Bucket byte

// Pebble does not support buckets to differentiate between groups of
// keys like Bolt or MDBX does. We use a global prefix list as a poor
// man's bucket alternative.
const (
	Accounts     Bucket = iota // AccountID -> Account
	Notes                      // NoteID -> InputNoteRecord
	Transactions               // TxID -> TransactionRecord
	Tags                       // Tag -> struct{}
	SyncHeight                 // -> uint64
)

func Buckets() []Bucket {
	return []Bucket{Accounts, Notes, Transactions, Tags, SyncHeight}
}

// Key flattens a prefix and series of byte arrays into a single []byte.
func (b Bucket) Key(key ...[]byte) []byte {
	return append([]byte{byte(b)}, slices.Concat(key...)...)
}

// UpperBound is the exclusive end of the key range of b.
func (b Bucket) UpperBound() []byte {
	return []byte{byte(b) + 1}
}
