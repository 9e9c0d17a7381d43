package address

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/felt"
)

var (
	ErrInvalidAccountID    = errors.New("invalid account id")
	ErrSeedSearchExhausted = errors.New("account seed search exhausted")
)

// AccountType occupies the two most significant bits of an AccountID.
type AccountType uint8

const (
	RegularAccountImmutableCode AccountType = iota
	RegularAccountUpdatableCode
	FungibleFaucet
	NonFungibleFaucet
)

func (t AccountType) String() string {
	switch t {
	case RegularAccountImmutableCode:
		return "regular-immutable"
	case RegularAccountUpdatableCode:
		return "regular-updatable"
	case FungibleFaucet:
		return "fungible-faucet"
	case NonFungibleFaucet:
		return "non-fungible-faucet"
	default:
		return "unknown"
	}
}

func (t AccountType) IsFaucet() bool {
	return t == FungibleFaucet || t == NonFungibleFaucet
}

// StorageMode occupies bits 60-61 of an AccountID.
type StorageMode uint8

const (
	Public  StorageMode = 0b00
	Private StorageMode = 0b10
)

func (m StorageMode) String() string {
	switch m {
	case Public:
		return "public"
	case Private:
		return "private"
	default:
		return "unknown"
	}
}

func (m StorageMode) Valid() bool {
	return m == Public || m == Private
}

const (
	typeShift = 62
	modeShift = 60
	modeMask  = 0b11

	// Minimum number of trailing zero bits in the last element of the id derivation digest.
	RegularSeedDifficulty = 8
	FaucetSeedDifficulty  = 12
)

// AccountID is the first element of the digest of (seed, code commitment, storage commitment).
type AccountID uint64

func (id AccountID) Type() AccountType {
	return AccountType(uint64(id) >> typeShift)
}

func (id AccountID) StorageMode() StorageMode {
	return StorageMode((uint64(id) >> modeShift) & modeMask)
}

func (id AccountID) IsFaucet() bool {
	return id.Type().IsFaucet()
}

func (id AccountID) IsRegular() bool {
	return !id.IsFaucet()
}

func (id AccountID) IsPublic() bool {
	return id.StorageMode() == Public
}

func (id AccountID) Felt() felt.Felt {
	return felt.New(uint64(id))
}

func (id AccountID) Hex() string {
	return fmt.Sprintf("0x%016x", uint64(id))
}

func (id AccountID) String() string {
	return id.Hex()
}

// Validate checks the encoding rules that hold for every id regardless of how it was derived.
func (id AccountID) Validate() error {
	if uint64(id) >= felt.Modulus {
		return fmt.Errorf("%w: %s is not a field element", ErrInvalidAccountID, id)
	}
	if !id.StorageMode().Valid() {
		return fmt.Errorf("%w: %s has an unknown storage mode", ErrInvalidAccountID, id)
	}
	return nil
}

func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

func (id *AccountID) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func FromHex(s string) (AccountID, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAccountID, err)
	}
	id := AccountID(v)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}

func FromFelt(f felt.Felt) (AccountID, error) {
	id := AccountID(f.Uint64())
	return id, id.Validate()
}

func difficulty(t AccountType) int {
	if t.IsFaucet() {
		return FaucetSeedDifficulty
	}
	return RegularSeedDifficulty
}

func derivationDigest(seed felt.Word, codeCommitment, storageCommitment crypto.Digest) crypto.Digest {
	return crypto.NewHasher("account-id").
		UpdateWord(seed).
		UpdateDigest(codeCommitment, storageCommitment).
		Finish()
}

// digestValid reports whether digest encodes accountType and mode and meets the seed difficulty.
func digestValid(digest crypto.Digest, accountType AccountType, mode StorageMode) bool {
	id := AccountID(digest[0].Uint64())
	if id.Type() != accountType || id.StorageMode() != mode {
		return false
	}
	return bits.TrailingZeros64(digest[3].Uint64()) >= difficulty(accountType)
}

// New recomputes the id committed to by seed and fails unless the derivation is valid.
func New(seed felt.Word, codeCommitment, storageCommitment crypto.Digest) (AccountID, error) {
	digest := derivationDigest(seed, codeCommitment, storageCommitment)
	id := AccountID(digest[0].Uint64())
	if !digestValid(digest, id.Type(), id.StorageMode()) {
		return 0, fmt.Errorf("%w: seed does not satisfy the derivation rules", ErrInvalidAccountID)
	}
	return id, nil
}

// SeedSearch bounds the number of candidate seeds tried by DeriveSeed.
type SeedSearch struct {
	MaxAttempts uint64
}

func DefaultSeedSearch() SeedSearch {
	return SeedSearch{MaxAttempts: 1 << 24}
}

// DeriveSeed deterministically searches for a seed, starting from entropy, whose id encodes
// accountType and mode. The same inputs always produce the same seed and id.
func (s SeedSearch) DeriveSeed(entropy [32]byte, accountType AccountType, mode StorageMode,
	codeCommitment, storageCommitment crypto.Digest,
) (felt.Word, AccountID, error) {
	if !mode.Valid() {
		return felt.Word{}, 0, fmt.Errorf("%w: unknown storage mode %d", ErrInvalidAccountID, mode)
	}
	if accountType > NonFungibleFaucet {
		return felt.Word{}, 0, fmt.Errorf("%w: unknown account type %d", ErrInvalidAccountID, accountType)
	}

	var seed felt.Word
	for i := range seed {
		seed[i].SetBytes(entropy[i*felt.Bytes : (i+1)*felt.Bytes])
	}
	for attempt := uint64(0); attempt < s.MaxAttempts; attempt++ {
		digest := derivationDigest(seed, codeCommitment, storageCommitment)
		if digestValid(digest, accountType, mode) {
			return seed, AccountID(digest[0].Uint64()), nil
		}
		seed = crypto.NewHasher("account-seed").UpdateWord(seed).Finish().Word()
	}
	return felt.Word{}, 0, fmt.Errorf("%w: no valid seed for %s %s account after %d attempts",
		ErrSeedSearchExhausted, mode, accountType, s.MaxAttempts)
}

// NewDummy builds an id with the requested encoding that is not backed by any seed. It is meant
// for payment targets that only need a well-formed address.
func NewDummy(entropy [32]byte, accountType AccountType, mode StorageMode) AccountID {
	d := crypto.NewHasher("dummy-account-id").UpdateBytes(entropy[:]).Finish()
	low := d[0].Uint64() & (1<<modeShift - 1)
	return AccountID(uint64(accountType)<<typeShift | uint64(mode)<<modeShift | low)
}
