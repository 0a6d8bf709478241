package client

import (
	"context"

	"github.com/dmitrijs2005/solvault/internal/vault"
)

// Client is the ledger connection used by the CLI.
type Client interface {
	vault.Ledger
	Ping(ctx context.Context) error
	Close() error
}
