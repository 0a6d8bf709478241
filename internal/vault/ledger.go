package vault

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// AccountInfo is the part of an on-chain account the client looks at.
type AccountInfo struct {
	Owner      solana.PublicKey
	Lamports   uint64
	Executable bool
}

// Ledger is the remote ledger as seen by the vault core.
type Ledger interface {
	// GetAccountInfo returns nil, nil when the account does not exist.
	GetAccountInfo(ctx context.Context, address solana.PublicKey) (*AccountInfo, error)
	GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// Submit sends a signed transaction and waits until it reaches commitment.
	Submit(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (solana.Signature, error)
}

// Signer is the wallet capability: sign the transaction or refuse. The core
// never sees key material.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}
