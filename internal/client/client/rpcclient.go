package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/dmitrijs2005/solvault/internal/metrics"
	"github.com/dmitrijs2005/solvault/internal/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"golang.org/x/time/rate"
)

// rpcAPI is the subset of *rpc.Client the ledger client calls.
type rpcAPI interface {
	GetHealth(ctx context.Context) (string, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	Close() error
}

type Options struct {
	// RequestsPerSecond caps outgoing RPC calls; zero disables throttling.
	RequestsPerSecond float64
	// ConfirmTimeout bounds the wait for a submitted transaction.
	ConfirmTimeout time.Duration
	// ConfirmPoll is the signature status polling period.
	ConfirmPoll time.Duration
	// ReadCommitment is used for account and balance reads.
	ReadCommitment rpc.CommitmentType
	Metrics        *metrics.Metrics
}

// RPCClient talks to a Solana JSON-RPC endpoint.
type RPCClient struct {
	api     rpcAPI
	limiter *rate.Limiter
	opts    Options
	log     logging.Logger
}

var _ Client = (*RPCClient)(nil)

// NewRPCClient connects to endpoint. No request is made until the first call.
func NewRPCClient(endpoint string, opts Options, log logging.Logger) *RPCClient {
	return newRPCClient(rpc.New(endpoint), opts, log.With("endpoint", endpoint))
}

func newRPCClient(api rpcAPI, opts Options, log logging.Logger) *RPCClient {
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 30 * time.Second
	}
	if opts.ConfirmPoll <= 0 {
		opts.ConfirmPoll = 500 * time.Millisecond
	}
	if opts.ReadCommitment == "" {
		opts.ReadCommitment = rpc.CommitmentConfirmed
	}

	c := &RPCClient{api: api, opts: opts, log: log}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// call waits for a limiter token, runs fn and records the outcome.
func (c *RPCClient) call(ctx context.Context, method string, fn func() error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}

	started := time.Now()
	err := fn()
	c.opts.Metrics.ObserveRPC(method, started, err)
	if err != nil {
		c.log.Debug(ctx, "rpc call failed", "method", method, "error", err)
		return c.mapError(err)
	}
	return nil
}

func (c *RPCClient) Ping(ctx context.Context) error {
	var health string
	err := c.call(ctx, "getHealth", func() (err error) {
		health, err = c.api.GetHealth(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if health != "ok" {
		return fmt.Errorf("%w: health %q", ErrUnavailable, health)
	}
	return nil
}

func (c *RPCClient) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*vault.AccountInfo, error) {
	var res *rpc.GetAccountInfoResult
	err := c.call(ctx, "getAccountInfo", func() (err error) {
		res, err = c.api.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
			Commitment: c.opts.ReadCommitment,
			Encoding:   solana.EncodingBase64,
		})
		if errors.Is(err, rpc.ErrNotFound) {
			res, err = nil, nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, nil
	}
	return &vault.AccountInfo{
		Owner:      res.Value.Owner,
		Lamports:   res.Value.Lamports,
		Executable: res.Value.Executable,
	}, nil
}

func (c *RPCClient) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	var res *rpc.GetBalanceResult
	err := c.call(ctx, "getBalance", func() (err error) {
		res, err = c.api.GetBalance(ctx, address, c.opts.ReadCommitment)
		return err
	})
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var res *rpc.GetLatestBlockhashResult
	err := c.call(ctx, "getLatestBlockhash", func() (err error) {
		res, err = c.api.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		return err
	})
	if err != nil {
		return solana.Hash{}, err
	}
	if res.Value == nil {
		return solana.Hash{}, fmt.Errorf("%w: empty blockhash response", ErrUnavailable)
	}
	return res.Value.Blockhash, nil
}

// Submit sends tx with preflight at commitment and polls its status until it
// reaches commitment, fails on chain, or ConfirmTimeout passes.
func (c *RPCClient) Submit(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (solana.Signature, error) {
	var sig solana.Signature
	err := c.call(ctx, "sendTransaction", func() (err error) {
		sig, err = c.api.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			PreflightCommitment: commitment,
		})
		return err
	})
	if err != nil {
		return solana.Signature{}, err
	}

	c.log.Debug(ctx, "transaction sent", "signature", sig.String())
	if err := c.confirm(ctx, sig, commitment); err != nil {
		return sig, err
	}
	return sig, nil
}

func (c *RPCClient) confirm(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.opts.ConfirmPoll)
	defer ticker.Stop()

	for {
		var res *rpc.GetSignatureStatusesResult
		err := c.call(ctx, "getSignatureStatuses", func() (err error) {
			res, err = c.api.GetSignatureStatuses(ctx, false, sig)
			return err
		})

		switch {
		case err != nil && ctx.Err() != nil:
			return fmt.Errorf("%w: %s", ErrConfirmTimeout, sig)
		case err != nil:
			c.log.Warn(ctx, "signature status poll failed", "signature", sig.String(), "error", err)
		case res != nil && len(res.Value) > 0 && res.Value[0] != nil:
			st := res.Value[0]
			if st.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, st.Err)
			}
			if reached(st.ConfirmationStatus, commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrConfirmTimeout, sig)
		case <-ticker.C:
		}
	}
}

func (c *RPCClient) Close() error {
	return c.api.Close()
}

func confirmationRank(s rpc.ConfirmationStatusType) int {
	switch s {
	case rpc.ConfirmationStatusProcessed:
		return 1
	case rpc.ConfirmationStatusConfirmed:
		return 2
	case rpc.ConfirmationStatusFinalized:
		return 3
	default:
		return 0
	}
}

func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	return confirmationRank(status) >= confirmationRank(rpc.ConfirmationStatusType(want))
}

// SimulationError is a preflight failure reported by the node. It keeps the
// program logs so callers can inspect them.
type SimulationError struct {
	RPC  *jsonrpc.RPCError
	logs []string
}

func (e *SimulationError) Error() string  { return e.RPC.Message }
func (e *SimulationError) Unwrap() error  { return e.RPC }
func (e *SimulationError) Logs() []string { return e.logs }

func simulationLogs(data any) []string {
	m, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["logs"].([]any)
	if !ok {
		return nil
	}
	logs := make([]string, 0, len(raw))
	for _, l := range raw {
		if s, ok := l.(string); ok {
			logs = append(logs, s)
		}
	}
	return logs
}

func (c *RPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		if rpcErr.Code == 429 || rpcErr.Code == -32429 {
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		if logs := simulationLogs(rpcErr.Data); logs != nil {
			return &SimulationError{RPC: rpcErr, logs: logs}
		}
		return err
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
