package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/solvault/internal/common"
	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Reconciler is what the orchestrator needs from an Observer.
type Reconciler interface {
	Refresh(ctx context.Context) (Snapshot, error)
	ReconcileAfter(delay time.Duration)
}

// Outcome is the result of one Execute call.
type Outcome struct {
	Request   Request
	Signature solana.Signature
	// Reason is nil on success.
	Reason *Reason
	// Err carries the failure with its sentinel (ErrSignerRejected,
	// ErrSubmissionFailed, ...) for errors.Is; nil on success.
	Err error
}

func (o Outcome) Succeeded() bool { return o.Reason == nil }

// Message is the status line shown for the outcome.
func (o Outcome) Message() string {
	if o.Reason != nil {
		return o.Reason.String()
	}

	tx := common.Truncate(o.Signature.String(), 8)
	switch o.Request.Kind {
	case KindCreate:
		return "Vault initialized! TX: " + tx
	case KindDeposit:
		return "Deposited! TX: " + tx
	case KindWithdraw:
		return "Withdrawn! TX: " + tx
	case KindClose:
		return "Vault closed! TX: " + tx
	default:
		return "Done! TX: " + tx
	}
}

type OrchestratorConfig struct {
	// ReconcileDelay is the wait before the post-action refresh that absorbs
	// RPC read-after-write lag.
	ReconcileDelay time.Duration
	// Commitment the submission waits for.
	Commitment rpc.CommitmentType
}

// Orchestrator runs vault operations one at a time.
//
// The busy flag is an advisory single-flight gate: while one Execute is in
// progress others fail fast with ErrBusy. No operation is retried.
type Orchestrator struct {
	ledger     Ledger
	program    *Program
	reconciler Reconciler
	cfg        OrchestratorConfig
	log        logging.Logger

	busy atomic.Bool

	mu          sync.RWMutex
	lastMessage string
}

// NewOrchestrator wires an orchestrator. reconciler may be nil.
func NewOrchestrator(ledger Ledger, program *Program, reconciler Reconciler, cfg OrchestratorConfig, log logging.Logger) *Orchestrator {
	if cfg.ReconcileDelay <= 0 {
		cfg.ReconcileDelay = time.Second
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentProcessed
	}
	return &Orchestrator{
		ledger:     ledger,
		program:    program,
		reconciler: reconciler,
		cfg:        cfg,
		log:        log,
	}
}

func (o *Orchestrator) Busy() bool { return o.busy.Load() }

// LastMessage is the status line of the most recent outcome.
func (o *Orchestrator) LastMessage() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastMessage
}

func (o *Orchestrator) setMessage(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastMessage = msg
}

// Execute builds, signs, submits and confirms r for identity. Every failure
// is returned inside the Outcome.
func (o *Orchestrator) Execute(ctx context.Context, r Request, identity solana.PublicKey, signer Signer) Outcome {
	if !o.busy.CompareAndSwap(false, true) {
		reason := Classify(ErrBusy)
		return Outcome{Request: r, Reason: &reason, Err: ErrBusy}
	}
	defer o.busy.Store(false)

	o.setMessage("")
	log := o.log.With("kind", r.Kind.String(), "identity", identity.String())

	outcome := o.execute(ctx, r, identity, signer, log)
	o.setMessage(outcome.Message())

	if outcome.Succeeded() {
		log.Info(ctx, "vault operation confirmed", "signature", outcome.Signature.String(), "amount", r.Amount)
		o.reconcile(ctx)
	}

	return outcome
}

func (o *Orchestrator) execute(ctx context.Context, r Request, identity solana.PublicKey, signer Signer, log logging.Logger) Outcome {
	if err := r.Validate(); err != nil {
		return o.fail(ctx, log, r, "validate", err, err)
	}

	pair := Derive(identity, o.program.ID)

	recent, err := o.ledger.LatestBlockhash(ctx)
	if err != nil {
		return o.fail(ctx, log, r, "blockhash", ErrSubmissionFailed, err)
	}

	tx, err := o.program.BuildTransaction(r, identity, pair, recent)
	if err != nil {
		return o.fail(ctx, log, r, "build", ErrSubmissionFailed, err)
	}

	signed, err := sign(ctx, signer, tx)
	if err != nil {
		return o.fail(ctx, log, r, "sign", ErrSignerRejected, err)
	}

	sig, err := o.ledger.Submit(ctx, signed, o.cfg.Commitment)
	if err != nil {
		return o.fail(ctx, log, r, "submit", ErrSubmissionFailed, err)
	}

	return Outcome{Request: r, Signature: sig}
}

func (o *Orchestrator) fail(ctx context.Context, log logging.Logger, r Request, stage string, sentinel, raw error) Outcome {
	reason := classifyFor(r.Kind, raw)

	err := raw
	if !errors.Is(raw, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, raw)
	}
	if reason.Kind == ReasonAlreadyInitialized {
		err = fmt.Errorf("%w: %w", ErrAlreadyInitialized, err)
	}

	log.Error(ctx, "vault operation failed", "stage", stage, "error", err)
	return Outcome{Request: r, Reason: &reason, Err: err}
}

func (o *Orchestrator) reconcile(ctx context.Context) {
	if o.reconciler == nil {
		return
	}
	o.reconciler.ReconcileAfter(o.cfg.ReconcileDelay)
	_, _ = o.reconciler.Refresh(ctx)
}

func sign(ctx context.Context, signer Signer, tx *solana.Transaction) (signed *solana.Transaction, err error) {
	if signer == nil {
		return nil, ErrNoSession
	}

	defer func() {
		if p := recover(); p != nil {
			signed, err = nil, fmt.Errorf("signer panicked: %v", p)
		}
	}()

	signed, err = signer.SignTransaction(ctx, tx)
	if err == nil && signed == nil {
		err = errors.New("signer returned no transaction")
	}
	return signed, err
}
