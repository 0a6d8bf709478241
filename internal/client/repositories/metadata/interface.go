package metadata

import (
	"context"
)

// Keys of the values the client remembers between runs.
const (
	// KeyWalletSource is the keypair file last connected. Only the path is
	// stored, never key material.
	KeyWalletSource = "wallet_source"
	// KeyWalletIdentity is the base58 public key of that wallet.
	KeyWalletIdentity = "wallet_identity"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
}
