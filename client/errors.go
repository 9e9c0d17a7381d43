package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/core/transaction"
)

type Kind uint8

const (
	KindConfiguration Kind = iota + 1
	KindCompile
	KindSeedSearchExhausted
	KindExecution
	KindProving
	KindSubmission
	KindSync
	KindReverted
	KindTimeout
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindCompile:
		return "compile"
	case KindSeedSearchExhausted:
		return "seed search exhausted"
	case KindExecution:
		return "execution"
	case KindProving:
		return "proving"
	case KindSubmission:
		return "submission"
	case KindSync:
		return "sync"
	case KindReverted:
		return "reverted"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Retryable reports whether the same operation may succeed when attempted again. Reverted
// transactions are not retryable: the caller has to re-plan.
func (k Kind) Retryable() bool {
	switch k {
	case KindProving, KindSubmission, KindSync, KindSeedSearchExhausted:
		return true
	default:
		return false
	}
}

var (
	ErrDuplicateAccount  = errors.New("account already tracked with a newer state")
	ErrUnknownAccount    = errors.New("account is not tracked")
	ErrNoteNotConsumable = errors.New("note is not consumable by the account")
	ErrUnknownTx         = errors.New("transaction is not pending")

	ErrUnsettledTransaction = errors.New("account has an unsettled transaction")
)

// Error carries a failure kind together with the context needed to diagnose it.
type Error struct {
	Kind    Kind
	Account address.AccountID
	Notes   []note.ID
	Tx      *transaction.ID
	Request string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Account != 0 {
		fmt.Fprintf(&b, " account=%s", e.Account)
	}
	if e.Tx != nil {
		fmt.Fprintf(&b, " tx=%s", e.Tx)
	}
	if len(e.Notes) > 0 {
		ids := make([]string, len(e.Notes))
		for i, id := range e.Notes {
			ids[i] = id.Hex()
		}
		fmt.Fprintf(&b, " notes=[%s]", strings.Join(ids, " "))
	}
	if e.Request != "" {
		fmt.Fprintf(&b, " request={%s}", e.Request)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind of err.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func newError(kind Kind, account address.AccountID, err error) *Error {
	return &Error{Kind: kind, Account: account, Err: err}
}
