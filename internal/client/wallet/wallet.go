// Package wallet loads the user's keypair and signs vault transactions with
// it. Supported sources are solana-keygen JSON files, passphrase-encrypted
// keystore files and base58 secret keys.
package wallet

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/solvault/internal/common"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidKey      = errors.New("invalid secret key")
	ErrWrongPassphrase = errors.New("wrong passphrase")
	ErrNoPassphrase    = errors.New("passphrase required")
	ErrLocked          = errors.New("wallet is locked")
)

// Wallet holds one ed25519 keypair in memory.
type Wallet struct {
	// mu guards key; Wipe may run while a signature is in progress.
	mu  sync.RWMutex
	key solana.PrivateKey
	pub solana.PublicKey
	// source is the file the key came from; empty for inline secrets.
	source string
}

func newWallet(secret []byte, source string) (*Wallet, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(secret))
	}
	derived := ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize])
	if !derived.Equal(ed25519.PrivateKey(secret)) {
		return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
	}

	key := make(solana.PrivateKey, len(secret))
	copy(key, secret)
	return &Wallet{key: key, pub: key.PublicKey(), source: source}, nil
}

func (w *Wallet) PublicKey() solana.PublicKey {
	return w.pub
}

// Source is the keypair file path, or "" when the key was given inline.
func (w *Wallet) Source() string { return w.source }

// SignTransaction adds the wallet signature to tx. It refuses transactions
// that need any other signer.
func (w *Wallet) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.key == nil {
		return nil, ErrLocked
	}

	_, err := tx.Sign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(w.pub) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return tx, nil
}

// Wipe zeroes the key material. The wallet cannot sign afterwards.
func (w *Wallet) Wipe() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.key == nil {
		return
	}
	common.WipeByteArray(w.key)
	w.key = nil
}
