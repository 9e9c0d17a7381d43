package account

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
)

var (
	ErrMalformedAccount = errors.New("malformed account")
	ErrUnsupportedType  = errors.New("component does not support the account type")
	ErrMissingAuthKey   = errors.New("account has no auth key")
)

// Account is the full local state of an account.
type Account struct {
	ID      address.AccountID
	Nonce   uint64
	Code    *Code
	Storage *Storage
	Vault   *asset.Vault
	// Seed is only kept until the account is created on chain by its first transaction.
	Seed *felt.Word `cbor:",omitempty"`
	// AuthKey is the serialised signing key; nil for accounts that are only watched.
	AuthKey []byte `cbor:",omitempty"`
}

// New assembles an account from already validated parts. It does not contact any external system.
func New(id address.AccountID, code *Code, storage *Storage, vault *asset.Vault, nonce uint64, seed *felt.Word) *Account {
	if vault == nil {
		vault = &asset.Vault{Balances: make(map[address.AccountID]uint64)}
	}
	return &Account{ID: id, Nonce: nonce, Code: code, Storage: storage, Vault: vault, Seed: seed}
}

// Build derives the id of a brand new account from component and entropy and attaches authKey.
func Build(component *Component, accountType address.AccountType, mode address.StorageMode,
	entropy [32]byte, search address.SeedSearch, authKey []byte,
) (*Account, error) {
	if !component.Supports(accountType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, accountType)
	}
	storage, err := NewStorage(component.Storage)
	if err != nil {
		return nil, err
	}
	seed, id, err := search.DeriveSeed(entropy, accountType, mode, component.Code.Commitment, storage.Commitment())
	if err != nil {
		return nil, err
	}
	acc := New(id, component.Code, storage, nil, 0, &seed)
	acc.AuthKey = authKey
	return acc, nil
}

func (a *Account) IsFaucet() bool {
	return a.ID.IsFaucet()
}

// IsNew reports whether the account has not been created on chain yet.
func (a *Account) IsNew() bool {
	return a.Nonce == 0 && a.Seed != nil
}

// Hash commits to the complete account state.
func (a *Account) Hash() crypto.Digest {
	return crypto.NewHasher("account-state").
		Update(a.ID.Felt(), felt.New(a.Nonce)).
		UpdateDigest(a.Vault.Commitment(), a.Storage.Commitment(), a.Code.Commitment).
		Finish()
}

// Validate checks the code commitment and, for new accounts, that the seed derives the id.
func (a *Account) Validate() error {
	if err := a.ID.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedAccount, err)
	}
	if a.Code == nil || a.Storage == nil || a.Vault == nil {
		return fmt.Errorf("%w: %s is missing code, storage or vault", ErrMalformedAccount, a.ID)
	}
	if err := a.Code.Validate(); err != nil {
		return err
	}
	if a.IsNew() {
		id, err := address.New(*a.Seed, a.Code.Commitment, a.Storage.Commitment())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedAccount, err)
		}
		if id != a.ID {
			return fmt.Errorf("%w: seed derives %s, not %s", ErrMalformedAccount, id, a.ID)
		}
	}
	return nil
}

func (a *Account) Sign(msg crypto.Digest) ([]byte, error) {
	if len(a.AuthKey) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingAuthKey, a.ID)
	}
	return crypto.Sign(a.AuthKey, msg)
}

func (a *Account) PublicKey() ([]byte, error) {
	if len(a.AuthKey) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingAuthKey, a.ID)
	}
	return crypto.PublicKey(a.AuthKey)
}

// Clone returns a deep copy; transactions execute against clones, never the cached state.
func (a *Account) Clone() *Account {
	out := *a
	out.Storage = a.Storage.Clone()
	out.Vault = a.Vault.Clone()
	if a.Seed != nil {
		seed := *a.Seed
		out.Seed = &seed
	}
	return &out
}
