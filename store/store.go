package store

import (
	"encoding/binary"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/db"
	"github.com/NethermindEth/notewise/encoder"
	pkgerrors "github.com/pkg/errors"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrNoteNotFound        = errors.New("note not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Store is the local cache of accounts, notes and transactions. A single mapping-level lock
// serialises writers; readers always receive snapshots. When backed by a key-value store every
// write is persisted in one batch before it becomes visible.
type Store struct {
	mu           sync.RWMutex
	kv           db.KeyValueStore
	accounts     map[address.AccountID]*account.Account
	notes        map[note.ID]*InputNoteRecord
	transactions map[transaction.ID]*TransactionRecord
	tags         map[note.Tag]struct{}
	syncHeight   uint64
}

// New returns a store persisted in kv, loading whatever kv already holds. A nil kv keeps
// everything in memory.
func New(kv db.KeyValueStore) (*Store, error) {
	s := &Store{kv: kv}
	s.reset()
	if kv == nil {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reset() {
	s.accounts = make(map[address.AccountID]*account.Account)
	s.notes = make(map[note.ID]*InputNoteRecord)
	s.transactions = make(map[transaction.ID]*TransactionRecord)
	s.tags = make(map[note.Tag]struct{})
	s.syncHeight = 0
}

func (s *Store) Account(id address.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, pkgerrors.WithMessage(ErrAccountNotFound, id.Hex())
	}
	return acc.Clone(), nil
}

// Accounts returns snapshots of every account ordered by id.
func (s *Store) Accounts() []*account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*account.Account, 0, len(s.accounts))
	for _, id := range slices.Sorted(maps.Keys(s.accounts)) {
		out = append(out, s.accounts[id].Clone())
	}
	return out
}

func (s *Store) AccountIDs() []address.AccountID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.accounts))
}

func (s *Store) InputNote(id note.ID) (*InputNoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.notes[id]
	if !ok {
		return nil, pkgerrors.WithMessage(ErrNoteNotFound, id.Hex())
	}
	cp := *rec
	return &cp, nil
}

// InputNotes returns the records accepted by filter, ordered by note id. A nil filter accepts all.
func (s *Store) InputNotes(filter func(*InputNoteRecord) bool) []*InputNoteRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*InputNoteRecord
	for _, rec := range s.notes {
		if filter == nil || filter(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *InputNoteRecord) int { return a.ID().Compare(b.ID()) })
	return out
}

func (s *Store) Transaction(id transaction.ID) (*TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.transactions[id]
	if !ok {
		return nil, pkgerrors.WithMessage(ErrTransactionNotFound, id.Hex())
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) Transactions(filter func(*TransactionRecord) bool) []*TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*TransactionRecord
	for _, rec := range s.transactions {
		if filter == nil || filter(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *TransactionRecord) int { return a.ID.Compare(b.ID) })
	return out
}

func (s *Store) Tags() []note.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.tags))
}

func (s *Store) SyncHeight() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncHeight
}

func (s *Store) PutAccount(acc *account.Account) error {
	return s.Update(func(w *Writer) error {
		return w.PutAccount(acc)
	})
}

func (s *Store) PutInputNotes(recs ...*InputNoteRecord) error {
	return s.Update(func(w *Writer) error {
		for _, rec := range recs {
			if err := w.PutInputNote(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) PutTransaction(rec *TransactionRecord) error {
	return s.Update(func(w *Writer) error {
		return w.PutTransaction(rec)
	})
}

func (s *Store) AddTag(tag note.Tag) error {
	return s.Update(func(w *Writer) error {
		w.AddTag(tag)
		return nil
	})
}

// Writer stages changes for Update. Nothing becomes visible until the update function returns.
type Writer struct {
	s            *Store
	accounts     map[address.AccountID]*account.Account
	notes        map[note.ID]*InputNoteRecord
	transactions map[transaction.ID]*TransactionRecord
	tags         []note.Tag
	syncHeight   *uint64
}

func (w *Writer) PutAccount(acc *account.Account) error {
	if acc == nil {
		return errors.New("nil account")
	}
	w.accounts[acc.ID] = acc.Clone()
	return nil
}

func (w *Writer) PutInputNote(rec *InputNoteRecord) error {
	if rec == nil || rec.Note == nil {
		return errors.New("nil note record")
	}
	cp := *rec
	w.notes[rec.ID()] = &cp
	return nil
}

func (w *Writer) PutTransaction(rec *TransactionRecord) error {
	if rec == nil {
		return errors.New("nil transaction record")
	}
	cp := *rec
	w.transactions[rec.ID] = &cp
	return nil
}

func (w *Writer) AddTag(tag note.Tag) {
	w.tags = append(w.tags, tag)
}

func (w *Writer) SetSyncHeight(height uint64) {
	w.syncHeight = &height
}

// Account reads through the staged changes.
func (w *Writer) Account(id address.AccountID) (*account.Account, bool) {
	if acc, ok := w.accounts[id]; ok {
		return acc.Clone(), true
	}
	acc, ok := w.s.accounts[id]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

// InputNote reads through the staged changes.
func (w *Writer) InputNote(id note.ID) (*InputNoteRecord, bool) {
	if rec, ok := w.notes[id]; ok {
		cp := *rec
		return &cp, true
	}
	rec, ok := w.s.notes[id]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// Update applies fn atomically: either every staged change is persisted and published or none is.
func (s *Store) Update(fn func(w *Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &Writer{
		s:            s,
		accounts:     make(map[address.AccountID]*account.Account),
		notes:        make(map[note.ID]*InputNoteRecord),
		transactions: make(map[transaction.ID]*TransactionRecord),
	}
	if err := fn(w); err != nil {
		return err
	}
	if s.kv != nil {
		if err := db.Update(s.kv, w.persist); err != nil {
			return pkgerrors.Wrap(err, "persist store update")
		}
	}

	maps.Copy(s.accounts, w.accounts)
	maps.Copy(s.notes, w.notes)
	maps.Copy(s.transactions, w.transactions)
	for _, tag := range w.tags {
		s.tags[tag] = struct{}{}
	}
	if w.syncHeight != nil {
		s.syncHeight = *w.syncHeight
	}
	return nil
}

// Clear drops every cached record, including persisted ones.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv != nil {
		for _, bucket := range db.Buckets() {
			if err := s.kv.DeleteRange(bucket.Key(), bucket.UpperBound()); err != nil {
				return pkgerrors.Wrapf(err, "clear bucket %d", bucket)
			}
		}
	}
	s.reset()
	return nil
}

func (w *Writer) persist(batch db.Batch) error {
	for id, acc := range w.accounts {
		if err := put(batch, db.Accounts.Key(uint64Key(uint64(id))), acc); err != nil {
			return err
		}
	}
	for id, rec := range w.notes {
		b := id.Bytes()
		if err := put(batch, db.Notes.Key(b[:]), rec); err != nil {
			return err
		}
	}
	for id, rec := range w.transactions {
		b := id.Bytes()
		if err := put(batch, db.Transactions.Key(b[:]), rec); err != nil {
			return err
		}
	}
	for _, tag := range w.tags {
		var k [4]byte
		binary.BigEndian.PutUint32(k[:], uint32(tag))
		if err := batch.Put(db.Tags.Key(k[:]), []byte{}); err != nil {
			return err
		}
	}
	if w.syncHeight != nil {
		if err := batch.Put(db.SyncHeight.Key(), uint64Key(*w.syncHeight)); err != nil {
			return err
		}
	}
	return nil
}

func put(batch db.Batch, key []byte, v any) error {
	b, err := encoder.Marshal(v)
	if err != nil {
		return pkgerrors.Wrapf(err, "encode %T", v)
	}
	return batch.Put(key, b)
}

func uint64Key(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func (s *Store) load() error {
	if err := db.ForEach(s.kv, db.Accounts, func(_, v []byte) error {
		acc, err := encoder.Decode[account.Account](v)
		if err != nil {
			return err
		}
		s.accounts[acc.ID] = acc
		return nil
	}); err != nil {
		return err
	}
	if err := db.ForEach(s.kv, db.Notes, func(_, v []byte) error {
		rec, err := encoder.Decode[InputNoteRecord](v)
		if err != nil {
			return err
		}
		s.notes[rec.ID()] = rec
		return nil
	}); err != nil {
		return err
	}
	if err := db.ForEach(s.kv, db.Transactions, func(_, v []byte) error {
		rec, err := encoder.Decode[TransactionRecord](v)
		if err != nil {
			return err
		}
		s.transactions[rec.ID] = rec
		return nil
	}); err != nil {
		return err
	}
	if err := db.ForEach(s.kv, db.Tags, func(k, _ []byte) error {
		if len(k) != 4 {
			return pkgerrors.Errorf("malformed tag key %x", k)
		}
		s.tags[note.Tag(binary.BigEndian.Uint32(k))] = struct{}{}
		return nil
	}); err != nil {
		return err
	}

	err := s.kv.Get(db.SyncHeight.Key(), func(v []byte) error {
		s.syncHeight = binary.BigEndian.Uint64(v)
		return nil
	})
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return pkgerrors.Wrap(err, "load sync height")
	}
	return nil
}
