package vault

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// fakeLedger is an in-memory ledger. Writes made through onSubmit become
// visible to reads only after lag.
type fakeLedger struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]uint64

	infoErr      error
	balanceErr   error
	blockhashErr error
	submitErr    error

	// gate, when non-nil, blocks GetAccountInfo until closed.
	gate chan struct{}

	lag       time.Duration
	onSubmit  func(l *fakeLedger, tx *solana.Transaction) error
	submitted []*solana.Transaction
	commits   []rpc.CommitmentType
	infoCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{accounts: make(map[solana.PublicKey]uint64)}
}

func (l *fakeLedger) set(addr solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[addr] = lamports
}

func (l *fakeLedger) remove(addr solana.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accounts, addr)
}

// later applies fn once the configured lag has passed.
func (l *fakeLedger) later(fn func()) {
	if l.lag <= 0 {
		fn()
		return
	}
	time.AfterFunc(l.lag, fn)
}

func (l *fakeLedger) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*AccountInfo, error) {
	l.mu.Lock()
	gate := l.gate
	l.infoCalls++
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.infoErr != nil {
		return nil, l.infoErr
	}
	lamports, ok := l.accounts[address]
	if !ok {
		return nil, nil
	}
	return &AccountInfo{Lamports: lamports}, nil
}

func (l *fakeLedger) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balanceErr != nil {
		return 0, l.balanceErr
	}
	return l.accounts[address], nil
}

func (l *fakeLedger) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.blockhashErr != nil {
		return solana.Hash{}, l.blockhashErr
	}
	return solana.Hash{1, 2, 3}, nil
}

func (l *fakeLedger) Submit(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (solana.Signature, error) {
	l.mu.Lock()
	l.submitted = append(l.submitted, tx)
	l.commits = append(l.commits, commitment)
	err := l.submitErr
	onSubmit := l.onSubmit
	l.mu.Unlock()

	if err != nil {
		return solana.Signature{}, err
	}
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, err
	}
	if onSubmit != nil {
		if err := onSubmit(l, tx); err != nil {
			return solana.Signature{}, err
		}
	}
	return tx.Signatures[0], nil
}

func (l *fakeLedger) submissions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.submitted)
}

// keySigner signs with an in-memory key.
type keySigner struct {
	key solana.PrivateKey
	err error
	hit func()
}

func newKeySigner() *keySigner {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return &keySigner{key: key}
}

func (s *keySigner) PublicKey() solana.PublicKey { return s.key.PublicKey() }

func (s *keySigner) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if s.hit != nil {
		s.hit()
	}
	if s.err != nil {
		return nil, s.err
	}
	_, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

var errBoom = errors.New("boom")
