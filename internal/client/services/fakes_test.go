package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/solvault/internal/client/client"
	"github.com/dmitrijs2005/solvault/internal/client/wallet"
	"github.com/dmitrijs2005/solvault/internal/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

// fakeLedger runs a tiny vault program in memory.
type fakeLedger struct {
	mu       sync.Mutex
	program  *vault.Program
	accounts map[solana.PublicKey]uint64
	sent     int
	sendErr  error
	pingErr  error
	closed   bool
	reads    int
}

var _ client.Client = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{program: vault.DefaultProgram(), accounts: make(map[solana.PublicKey]uint64)}
}

func (l *fakeLedger) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*vault.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads++
	lamports, ok := l.accounts[address]
	if !ok {
		return nil, nil
	}
	return &vault.AccountInfo{Lamports: lamports}, nil
}

func (l *fakeLedger) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[address], nil
}

func (l *fakeLedger) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return solana.Hash{4, 2}, nil
}

func (l *fakeLedger) Submit(ctx context.Context, tx *solana.Transaction, _ rpc.CommitmentType) (solana.Signature, error) {
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent++
	if l.sendErr != nil {
		return solana.Signature{}, l.sendErr
	}

	payer := tx.Message.AccountKeys[0]
	pair := vault.Derive(payer, l.program.ID)
	data := []byte(tx.Message.Instructions[0].Data)

	is := func(k vault.Kind) bool {
		d, _ := l.program.Discriminator(k)
		return bytes.Equal(data[:8], d[:])
	}
	amount := func() uint64 {
		var v uint64
		for i := 15; i >= 8; i-- {
			v = v<<8 | uint64(data[i])
		}
		return v
	}

	switch {
	case is(vault.KindCreate):
		if _, ok := l.accounts[pair.State]; ok {
			return solana.Signature{}, errors.New("Allocate: account already in use")
		}
		l.accounts[pair.State] = 1
	case is(vault.KindDeposit):
		l.accounts[pair.Funds] += amount()
	case is(vault.KindWithdraw):
		l.accounts[pair.Funds] -= amount()
	case is(vault.KindClose):
		delete(l.accounts, pair.State)
		delete(l.accounts, pair.Funds)
	}
	return tx.Signatures[0], nil
}

func (l *fakeLedger) Ping(ctx context.Context) error { return l.pingErr }

func (l *fakeLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *fakeLedger) accountReads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

func (l *fakeLedger) submissions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent
}

func newWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.Load(base58.Encode(key), nil)
	require.NoError(t, err)
	return w
}

// gatedSigner blocks in SignTransaction until release is closed.
type gatedSigner struct {
	*wallet.Wallet
	entered chan struct{}
	release chan struct{}
}

func newGatedSigner(t *testing.T) *gatedSigner {
	return &gatedSigner{Wallet: newWallet(t), entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedSigner) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Wallet.SignTransaction(ctx, tx)
}
