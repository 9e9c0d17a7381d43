package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/account"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/crypto"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
	"github.com/NethermindEth/notewise/store"
	"github.com/NethermindEth/notewise/utils"
)

// Client drives transactions of locally tracked accounts through execution, proving, submission
// and settlement. It owns its collaborators; nothing is shared through package state.
type Client struct {
	store    *store.Store
	executor Executor
	network  Network
	compiler compiler.Compiler
	rng      crypto.RandomCoin
	cfg      Config
	log      utils.SimpleLogger
	listener EventListener
	prover   *utils.Throttler[Prover]

	syncMu sync.Mutex

	mu       sync.Mutex
	locks    map[address.AccountID]chan struct{}
	sequence map[address.AccountID]uint64
	pending  map[transaction.ID]*pendingTx
	states   map[transaction.ID]TxState
}

func New(s *store.Store, executor Executor, prover Prover, network Network) *Client {
	cfg := DefaultConfig()
	return &Client{
		store:    s,
		executor: executor,
		network:  network,
		compiler: compiler.NewAssembler(),
		rng:      crypto.NewSystemRandomCoin(),
		cfg:      cfg,
		log:      utils.NewNopZapLogger(),
		listener: &SelectiveListener{},
		prover:   utils.NewThrottler(cfg.MaxConcurrentProofs, &prover),
		locks:    make(map[address.AccountID]chan struct{}),
		sequence: make(map[address.AccountID]uint64),
		pending:  make(map[transaction.ID]*pendingTx),
		states:   make(map[transaction.ID]TxState),
	}
}

func (c *Client) WithLogger(log utils.SimpleLogger) *Client {
	c.log = log
	return c
}

func (c *Client) WithListener(l EventListener) *Client {
	c.listener = l
	return c
}

func (c *Client) WithConfig(cfg Config) *Client {
	prover := c.prover.Resource()
	c.cfg = cfg
	c.prover = utils.NewThrottler(max(cfg.MaxConcurrentProofs, 1), prover)
	return c
}

func (c *Client) WithCompiler(comp compiler.Compiler) *Client {
	c.compiler = comp
	return c
}

func (c *Client) WithRandomCoin(rng crypto.RandomCoin) *Client {
	c.rng = rng
	return c
}

func (c *Client) Compiler() compiler.Compiler {
	return c.compiler
}

func (c *Client) RandomCoin() crypto.RandomCoin {
	return c.rng
}

func (c *Client) Store() *store.Store {
	return c.store
}

func (c *Client) Config() Config {
	return c.cfg
}

// Account returns a snapshot of a tracked account.
func (c *Client) Account(id address.AccountID) (*account.Account, error) {
	acc, err := c.store.Account(id)
	if err != nil {
		return nil, newError(KindConfiguration, id, errors.Join(ErrUnknownAccount, err))
	}
	return acc, nil
}

func (c *Client) Accounts() []*account.Account {
	return c.store.Accounts()
}

// ImportAccount starts tracking acc. Re-importing the same state is a no-op, importing an older
// or diverging state of a tracked account fails.
func (c *Client) ImportAccount(acc *account.Account) error {
	if err := acc.Validate(); err != nil {
		return newError(KindConfiguration, acc.ID, err)
	}

	err := c.store.Update(func(w *store.Writer) error {
		existing, ok := w.Account(acc.ID)
		switch {
		case !ok:
		case existing.Nonce == acc.Nonce && existing.Hash().Equal(acc.Hash()):
			return nil
		case existing.Nonce >= acc.Nonce:
			return fmt.Errorf("%w: tracked nonce %d, imported nonce %d", ErrDuplicateAccount, existing.Nonce, acc.Nonce)
		}
		w.AddTag(note.TagFromAccountID(acc.ID))
		return w.PutAccount(acc)
	})
	if err != nil {
		return newError(KindConfiguration, acc.ID, err)
	}
	c.log.Infow("Imported account", "account", acc.ID, "type", acc.ID.Type(), "nonce", acc.Nonce)
	return nil
}

// NewAccount derives a fresh account for component, generates its auth key and imports it.
func (c *Client) NewAccount(component *account.Component, accountType address.AccountType,
	mode address.StorageMode,
) (*account.Account, error) {
	authKey, err := crypto.GenerateAuthKey()
	if err != nil {
		return nil, newError(KindConfiguration, 0, err)
	}
	seed, err := c.rng.DrawWord()
	if err != nil {
		return nil, newError(KindConfiguration, 0, err)
	}
	var entropy [32]byte
	for i := range seed {
		b := seed[i].Bytes()
		copy(entropy[i*len(b):], b[:])
	}

	acc, err := account.Build(component, accountType, mode, entropy, address.SeedSearch{MaxAttempts: c.cfg.SeedAttempts}, authKey)
	if err != nil {
		kind := KindConfiguration
		if errors.Is(err, address.ErrSeedSearchExhausted) {
			kind = KindSeedSearchExhausted
		}
		return nil, newError(kind, 0, err)
	}
	if err := c.ImportAccount(acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// ImportNote tracks a note received out of band, typically a private note.
func (c *Client) ImportNote(n *note.Note) error {
	err := c.store.Update(func(w *store.Writer) error {
		if _, ok := w.InputNote(n.ID()); ok {
			return nil
		}
		return w.PutInputNote(&store.InputNoteRecord{Note: n, State: store.Expected})
	})
	if err != nil {
		return newError(KindConfiguration, 0, err)
	}
	return nil
}

// AddNoteTag asks future syncs to also report notes carrying tag.
func (c *Client) AddNoteTag(tag note.Tag) error {
	return c.store.AddTag(tag)
}

// lockAccount waits for the account to be free. While the holder is a submitted transaction the
// wait itself syncs, so a transaction left unsettled by an abandoned AwaitSettlement still resolves.
// That wait is bounded by Config.MaxPollAttempts.
func (c *Client) lockAccount(ctx context.Context, id address.AccountID) *Error {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		c.locks[id] = l
	}
	c.mu.Unlock()

	tryLock := func() bool {
		select {
		case l <- struct{}{}:
			return true
		default:
			return false
		}
	}
	for !tryLock() {
		if c.hasPending(id) {
			if err := c.poll(ctx, tryLock); err != nil {
				if err.Kind == KindTimeout {
					err.Err = errors.Join(ErrUnsettledTransaction, err.Err)
				}
				return err
			}
			return nil
		}
		// held by a transaction that is still being built
		select {
		case l <- struct{}{}:
			return nil
		case <-ctx.Done():
			return &Error{Kind: KindCancelled, Err: ctx.Err()}
		case <-time.After(c.cfg.PollInterval):
		}
	}
	return nil
}

func (c *Client) hasPending(id address.AccountID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pending {
		if p.result.AccountID() == id {
			return true
		}
	}
	return false
}

func (c *Client) unlockAccount(id address.AccountID) {
	c.mu.Lock()
	l := c.locks[id]
	c.mu.Unlock()
	<-l
}

// Sequence returns how many transactions were started for the account by this client.
func (c *Client) Sequence(id address.AccountID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sequence[id]
}

func ctxKind(ctx context.Context, fallback Kind) Kind {
	if ctx.Err() != nil {
		return KindCancelled
	}
	return fallback
}
