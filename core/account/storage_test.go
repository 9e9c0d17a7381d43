package account_test

import (
	"testing"

	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageSlots(t *testing.T) {
	s, err := account.NewStorage([]account.StorageSlot{
		account.NewValueSlot(felt.ZeroWord),
		account.NewMapSlot(nil),
	})
	require.NoError(t, err)
	initial := s.Commitment()

	require.NoError(t, s.SetItem(0, felt.NewWord(1, 2, 3, 4)))
	w, err := s.GetItem(0)
	require.NoError(t, err)
	assert.Equal(t, felt.NewWord(1, 2, 3, 4), w)
	assert.NotEqual(t, initial, s.Commitment())

	key := crypto.HashElements("key", felt.New(1))
	require.NoError(t, s.SetMapItem(1, key, felt.NewWord(9, 0, 0, 0)))
	v, err := s.GetMapItem(1, key)
	require.NoError(t, err)
	assert.Equal(t, felt.NewWord(9, 0, 0, 0), v)

	_, err = s.GetItem(1)
	require.ErrorIs(t, err, account.ErrSlotType)
	_, err = s.GetItem(2)
	require.ErrorIs(t, err, account.ErrSlotIndex)
	require.ErrorIs(t, s.SetItem(-1, felt.ZeroWord), account.ErrSlotIndex)
}

func TestStorageMapZeroValuesAreRemoved(t *testing.T) {
	m := &account.StorageMap{}
	empty := m.Root()
	key := crypto.HashElements("key", felt.New(2))

	m.Insert(key, felt.NewWord(1, 0, 0, 0))
	assert.NotEqual(t, empty, m.Root())
	m.Insert(key, felt.ZeroWord)
	assert.Equal(t, empty, m.Root())
	assert.Empty(t, m.Entries)
}

func TestStorageLayoutChangesCommitment(t *testing.T) {
	one, err := account.NewStorage([]account.StorageSlot{account.NewValueSlot(felt.ZeroWord)})
	require.NoError(t, err)
	two, err := account.NewStorage([]account.StorageSlot{account.NewValueSlot(felt.ZeroWord), account.NewValueSlot(felt.ZeroWord)})
	require.NoError(t, err)
	assert.NotEqual(t, one.Commitment(), two.Commitment())
}
