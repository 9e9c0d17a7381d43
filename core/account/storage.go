package account

import (
	"errors"
	"fmt"
	"slices"

	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
)

var (
	ErrSlotIndex = errors.New("storage slot index out of range")
	ErrSlotType  = errors.New("storage slot has a different type")
)

// MaxSlots mirrors the largest slot index addressable from code.
const MaxSlots = 255

// FaucetMetadataSlot holds [max supply, decimals, token symbol, issued] of a fungible faucet.
const FaucetMetadataSlot = 0

type SlotType uint8

const (
	ValueSlot SlotType = iota
	MapSlot
)

func (t SlotType) String() string {
	if t == MapSlot {
		return "map"
	}
	return "value"
}

type MapEntry struct {
	Key   crypto.Digest
	Value felt.Word
}

// StorageMap is a sorted key/value slot. Zero values are not stored.
type StorageMap struct {
	Entries []MapEntry
}

func (m *StorageMap) find(key crypto.Digest) (int, bool) {
	return slices.BinarySearchFunc(m.Entries, key, func(e MapEntry, k crypto.Digest) int {
		return e.Key.Compare(k)
	})
}

func (m *StorageMap) Get(key crypto.Digest) felt.Word {
	if i, ok := m.find(key); ok {
		return m.Entries[i].Value
	}
	return felt.ZeroWord
}

func (m *StorageMap) Insert(key crypto.Digest, value felt.Word) {
	i, ok := m.find(key)
	switch {
	case ok && value.IsZero():
		m.Entries = slices.Delete(m.Entries, i, i+1)
	case ok:
		m.Entries[i].Value = value
	case !value.IsZero():
		m.Entries = slices.Insert(m.Entries, i, MapEntry{Key: key, Value: value})
	}
}

func (m *StorageMap) Root() crypto.Digest {
	h := crypto.NewHasher("storage-map")
	for _, e := range m.Entries {
		h.UpdateDigest(e.Key).UpdateWord(e.Value)
	}
	return h.Finish()
}

type StorageSlot struct {
	Type  SlotType
	Value felt.Word
	Map   *StorageMap `cbor:",omitempty"`
}

func NewValueSlot(w felt.Word) StorageSlot {
	return StorageSlot{Type: ValueSlot, Value: w}
}

func NewMapSlot(m *StorageMap) StorageSlot {
	if m == nil {
		m = &StorageMap{}
	}
	return StorageSlot{Type: MapSlot, Map: m}
}

// commitment is the word a slot contributes to the storage commitment.
func (s *StorageSlot) commitment() felt.Word {
	if s.Type == MapSlot {
		return s.Map.Root().Word()
	}
	return s.Value
}

func (s *StorageSlot) clone() StorageSlot {
	out := *s
	if s.Map != nil {
		out.Map = &StorageMap{Entries: slices.Clone(s.Map.Entries)}
	}
	return out
}

// Storage is the fixed-length slot layout of an account.
type Storage struct {
	Slots []StorageSlot
}

func NewStorage(slots []StorageSlot) (*Storage, error) {
	if len(slots) > MaxSlots {
		return nil, fmt.Errorf("%w: %d slots exceed the maximum of %d", ErrSlotIndex, len(slots), MaxSlots)
	}
	s := &Storage{Slots: make([]StorageSlot, len(slots))}
	for i := range slots {
		if slots[i].Type == MapSlot && slots[i].Map == nil {
			slots[i].Map = &StorageMap{}
		}
		s.Slots[i] = slots[i].clone()
	}
	return s, nil
}

func (s *Storage) Len() int {
	return len(s.Slots)
}

func (s *Storage) slot(index int, want SlotType) (*StorageSlot, error) {
	if index < 0 || index >= len(s.Slots) {
		return nil, fmt.Errorf("%w: %d (storage has %d slots)", ErrSlotIndex, index, len(s.Slots))
	}
	slot := &s.Slots[index]
	if slot.Type != want {
		return nil, fmt.Errorf("%w: slot %d is a %s slot", ErrSlotType, index, slot.Type)
	}
	return slot, nil
}

func (s *Storage) GetItem(index int) (felt.Word, error) {
	slot, err := s.slot(index, ValueSlot)
	if err != nil {
		return felt.Word{}, err
	}
	return slot.Value, nil
}

func (s *Storage) SetItem(index int, value felt.Word) error {
	slot, err := s.slot(index, ValueSlot)
	if err != nil {
		return err
	}
	slot.Value = value
	return nil
}

func (s *Storage) GetMapItem(index int, key crypto.Digest) (felt.Word, error) {
	slot, err := s.slot(index, MapSlot)
	if err != nil {
		return felt.Word{}, err
	}
	return slot.Map.Get(key), nil
}

func (s *Storage) SetMapItem(index int, key crypto.Digest, value felt.Word) error {
	slot, err := s.slot(index, MapSlot)
	if err != nil {
		return err
	}
	slot.Map.Insert(key, value)
	return nil
}

func (s *Storage) Commitment() crypto.Digest {
	h := crypto.NewHasher("account-storage")
	for i := range s.Slots {
		h.Update(felt.New(uint64(s.Slots[i].Type))).UpdateWord(s.Slots[i].commitment())
	}
	return h.Finish()
}

func (s *Storage) Clone() *Storage {
	out := &Storage{Slots: make([]StorageSlot, len(s.Slots))}
	for i := range s.Slots {
		out.Slots[i] = s.Slots[i].clone()
	}
	return out
}
