package vault

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind selects one of the four vault instructions.
type Kind int

const (
	KindCreate Kind = iota + 1
	KindDeposit
	KindWithdraw
	KindClose
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindDeposit:
		return "deposit"
	case KindWithdraw:
		return "withdraw"
	case KindClose:
		return "close"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// InstructionName is the program instruction the kind maps to.
func (k Kind) InstructionName() string {
	if k == KindCreate {
		return "initialize"
	}
	return k.String()
}

// HasAmount reports whether the instruction carries a lamport amount.
func (k Kind) HasAmount() bool {
	return k == KindDeposit || k == KindWithdraw
}

// Request is one user action. Amount is in lamports and only meaningful for
// deposits and withdrawals.
type Request struct {
	Kind   Kind
	Amount uint64
}

func Create() Request { return Request{Kind: KindCreate} }

func Deposit(lamports uint64) Request { return Request{Kind: KindDeposit, Amount: lamports} }

func Withdraw(lamports uint64) Request { return Request{Kind: KindWithdraw, Amount: lamports} }

func Close() Request { return Request{Kind: KindClose} }

// Validate checks the request shape, not the vault state.
func (r Request) Validate() error {
	switch r.Kind {
	case KindCreate, KindClose:
		return nil
	case KindDeposit, KindWithdraw:
		if r.Amount == 0 {
			return ErrInvalidAmount
		}
		return nil
	default:
		return fmt.Errorf("unknown request kind %d", int(r.Kind))
	}
}

// AmountSOL returns the request amount in SOL.
func (r Request) AmountSOL() decimal.Decimal {
	return FromLamports(r.Amount)
}

func (r Request) String() string {
	if r.Kind.HasAmount() {
		return fmt.Sprintf("%s %s SOL", r.Kind, r.AmountSOL())
	}
	return r.Kind.String()
}

// CheckPreconditions reports whether the action should be offered for the
// observed snapshot. The program enforces the real rules; this only keeps the
// user from submitting transactions that cannot succeed.
func CheckPreconditions(r Request, snap Snapshot) error {
	switch r.Kind {
	case KindCreate:
		return nil
	case KindDeposit, KindClose:
		if !snap.Initialized {
			return ErrNotInitialized
		}
	case KindWithdraw:
		if !snap.Initialized {
			return ErrNotInitialized
		}
		if snap.Balance == nil {
			return ErrBalanceUnknown
		}
		if !snap.Balance.IsPositive() {
			return ErrEmptyVault
		}
	}
	return nil
}
