// Package client connects the vault client to the outside world.
//
// RPCClient implements vault.Ledger over a Solana JSON-RPC endpoint. Calls
// are throttled with a token bucket, transport failures are folded into the
// sentinel errors ErrUnavailable and ErrRateLimited, and Submit waits for the
// requested commitment by polling signature statuses.
//
// InitDatabase opens the local SQLite database, applies the embedded goose
// migrations and returns the repositories built on it.
package client
