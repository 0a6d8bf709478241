// Package services contains the application services behind the CLI.
// VaultService owns the wallet session: the observer that keeps the vault
// snapshot fresh, the orchestrator that runs actions, and the journal of
// what was submitted.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/solvault/internal/client/client"
	"github.com/dmitrijs2005/solvault/internal/client/models"
	"github.com/dmitrijs2005/solvault/internal/client/repositories/operations"
	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/dmitrijs2005/solvault/internal/metrics"
	"github.com/dmitrijs2005/solvault/internal/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// VaultService is the UI-facing façade over the vault core.
//
// Contract:
//   - Connect starts a session for signer, replacing any previous one.
//   - Disconnect stops the session; no snapshot update lands after it returns.
//     Actions already running are not cancelled; the signer is wiped once
//     the last of them finishes.
//   - Execute checks preconditions against the current snapshot, runs the
//     action and journals the outcome.
//   - Snapshot, Busy and LastMessage are safe to poll from the UI.
type VaultService interface {
	Connect(ctx context.Context, signer vault.Signer) error
	Disconnect(ctx context.Context)
	Identity() (solana.PublicKey, bool)
	Addresses() (vault.AddressPair, bool)
	Snapshot() vault.Snapshot
	Refresh(ctx context.Context) (vault.Snapshot, error)
	Execute(ctx context.Context, r vault.Request) (vault.Outcome, error)
	Busy() bool
	LastMessage() string
	History(ctx context.Context, limit int) ([]models.Operation, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type VaultServiceConfig struct {
	PollInterval   time.Duration
	ReconcileDelay time.Duration
}

type session struct {
	signer   vault.Signer
	pair     vault.AddressPair
	store    *vault.Store
	observer *vault.Observer
	orch     *vault.Orchestrator

	mu       sync.Mutex
	ended    bool
	inflight int
	// keepSigner is set when the next session reuses the same signer.
	keepSigner bool
}

// acquire registers an action on the session. It fails once the session
// has ended.
func (s *session) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.inflight++
	return true
}

// release ends an action. The last action of an ended session wipes the
// signer.
func (s *session) release() {
	s.mu.Lock()
	s.inflight--
	wipe := s.ended && s.inflight == 0 && !s.keepSigner
	s.mu.Unlock()

	if wipe {
		s.wipe()
	}
}

// end stops the observer at once. Actions still running keep the signer
// until they finish.
func (s *session) end() {
	s.observer.Stop()
	s.store.Reset()

	s.mu.Lock()
	s.ended = true
	wipe := s.inflight == 0 && !s.keepSigner
	s.mu.Unlock()

	if wipe {
		s.wipe()
	}
}

func (s *session) wipe() {
	if w, ok := s.signer.(interface{ Wipe() }); ok {
		w.Wipe()
	}
}

type vaultService struct {
	ledger  client.Client
	program *vault.Program
	journal operations.Repository
	metrics *metrics.Metrics
	cfg     VaultServiceConfig
	log     logging.Logger

	mu      sync.RWMutex
	session *session
}

// NewVaultService wires the service. journal and m may be nil.
func NewVaultService(ledger client.Client, program *vault.Program, journal operations.Repository, m *metrics.Metrics, cfg VaultServiceConfig, log logging.Logger) VaultService {
	return &vaultService{
		ledger:  ledger,
		program: program,
		journal: journal,
		metrics: m,
		cfg:     cfg,
		log:     log,
	}
}

func (s *vaultService) current() *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *vaultService) Connect(ctx context.Context, signer vault.Signer) error {
	if signer == nil {
		return vault.ErrNoSession
	}
	identity := signer.PublicKey()
	store := vault.NewStore()
	observer := vault.NewObserver(s.ledger, s.program.ID, identity, store, vault.ObserverConfig{
		Interval: s.cfg.PollInterval,
		OnRefresh: func(_ vault.Snapshot, err error) {
			s.metrics.ObserveRefresh(err)
		},
	}, s.log)
	orch := vault.NewOrchestrator(s.ledger, s.program, observer, vault.OrchestratorConfig{
		ReconcileDelay: s.cfg.ReconcileDelay,
	}, s.log)

	sess := &session{
		signer:   signer,
		pair:     vault.Derive(identity, s.program.ID),
		store:    store,
		observer: observer,
		orch:     orch,
	}

	s.mu.Lock()
	prev := s.session
	s.session = sess
	s.mu.Unlock()

	if prev != nil {
		if prev.signer == signer {
			prev.mu.Lock()
			prev.keepSigner = true
			prev.mu.Unlock()
		}
		prev.end()
		s.log.Info(ctx, "wallet disconnected", "identity", prev.signer.PublicKey().String())
	}

	// The poll loop outlives the connect call; only Disconnect ends it.
	observer.Start(context.WithoutCancel(ctx))
	s.log.Info(ctx, "wallet connected", "identity", identity.String(), "state", sess.pair.State.String())
	return nil
}

func (s *vaultService) Disconnect(ctx context.Context) {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()

	if sess == nil {
		return
	}
	sess.end()
	s.log.Info(ctx, "wallet disconnected", "identity", sess.signer.PublicKey().String())
}

func (s *vaultService) Identity() (solana.PublicKey, bool) {
	sess := s.current()
	if sess == nil {
		return solana.PublicKey{}, false
	}
	return sess.signer.PublicKey(), true
}

func (s *vaultService) Addresses() (vault.AddressPair, bool) {
	sess := s.current()
	if sess == nil {
		return vault.AddressPair{}, false
	}
	return sess.pair, true
}

// Snapshot is the zero snapshot while disconnected.
func (s *vaultService) Snapshot() vault.Snapshot {
	sess := s.current()
	if sess == nil {
		return vault.Snapshot{}
	}
	return sess.observer.Snapshot()
}

func (s *vaultService) Refresh(ctx context.Context) (vault.Snapshot, error) {
	sess := s.current()
	if sess == nil {
		return vault.Snapshot{}, vault.ErrNoSession
	}
	return sess.observer.Refresh(ctx)
}

func (s *vaultService) Execute(ctx context.Context, r vault.Request) (vault.Outcome, error) {
	sess := s.current()
	if sess == nil || !sess.acquire() {
		return vault.Outcome{}, vault.ErrNoSession
	}
	defer sess.release()

	if err := r.Validate(); err != nil {
		return vault.Outcome{}, err
	}
	if err := vault.CheckPreconditions(r, sess.observer.Snapshot()); err != nil {
		return vault.Outcome{}, err
	}

	identity := sess.signer.PublicKey()
	outcome := sess.orch.Execute(ctx, r, identity, sess.signer)
	if errors.Is(outcome.Err, vault.ErrBusy) {
		return outcome, nil
	}

	s.metrics.ObserveOperation(r.Kind.String(), outcome.Err)
	s.record(ctx, identity, outcome)
	return outcome, nil
}

func (s *vaultService) record(ctx context.Context, identity solana.PublicKey, outcome vault.Outcome) {
	if s.journal == nil {
		return
	}

	op := &models.Operation{
		ID:        uuid.NewString(),
		Identity:  identity.String(),
		Kind:      outcome.Request.Kind.String(),
		Lamports:  outcome.Request.Amount,
		Status:    models.StatusConfirmed,
		Message:   outcome.Message(),
		CreatedAt: time.Now(),
	}
	if outcome.Succeeded() {
		op.Signature = outcome.Signature.String()
	} else {
		op.Status = models.StatusFailed
	}

	if err := s.journal.Insert(ctx, op); err != nil {
		s.log.Warn(ctx, "failed to journal operation", "kind", op.Kind, "error", err)
	}
}

func (s *vaultService) Busy() bool {
	sess := s.current()
	return sess != nil && sess.orch.Busy()
}

func (s *vaultService) LastMessage() string {
	sess := s.current()
	if sess == nil {
		return ""
	}
	return sess.orch.LastMessage()
}

func (s *vaultService) History(ctx context.Context, limit int) ([]models.Operation, error) {
	identity, ok := s.Identity()
	if !ok {
		return nil, vault.ErrNoSession
	}
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.ListRecent(ctx, identity.String(), limit)
}

func (s *vaultService) Ping(ctx context.Context) error {
	return s.ledger.Ping(ctx)
}

// Close ends the session and releases the ledger connection.
func (s *vaultService) Close(ctx context.Context) error {
	s.Disconnect(ctx)
	return s.ledger.Close()
}
