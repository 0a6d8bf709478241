package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/gagliardetto/solana-go"
)

// Fetch reads the vault state of identity from the ledger.
//
// A missing state record yields an uninitialized snapshot. When the record
// exists but the balance read fails, the returned snapshot is initialized
// with a nil Balance together with the error.
func Fetch(ctx context.Context, ledger Ledger, programID, identity solana.PublicKey) (Snapshot, error) {
	pair := Derive(identity, programID)

	info, err := ledger.GetAccountInfo(ctx, pair.State)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: state %s: %w", ErrReadFailure, pair.State, err)
	}
	if info == nil {
		return Snapshot{ObservedAt: time.Now()}, nil
	}

	lamports, err := ledger.GetBalance(ctx, pair.Funds)
	if err != nil {
		return Snapshot{Initialized: true, ObservedAt: time.Now()},
			fmt.Errorf("%w: balance %s: %w", ErrReadFailure, pair.Funds, err)
	}

	balance := FromLamports(lamports)
	return Snapshot{
		Initialized: true,
		Balance:     &balance,
		Lamports:    lamports,
		ObservedAt:  time.Now(),
	}, nil
}

// ObserverConfig tunes an Observer.
type ObserverConfig struct {
	// Interval between periodic polls.
	Interval time.Duration
	// ReadTimeout bounds a single refresh.
	ReadTimeout time.Duration
	// OnRefresh, if set, is called after every refresh attempt.
	OnRefresh func(Snapshot, error)
}

// Observer keeps the Store of one wallet session up to date.
type Observer struct {
	ledger    Ledger
	programID solana.PublicKey
	identity  solana.PublicKey
	store     *Store
	cfg       ObserverConfig
	log       logging.Logger

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	pollCancel context.CancelFunc
	started    bool
	closed     bool
	timers     map[*time.Timer]struct{}
	wg         sync.WaitGroup
}

func NewObserver(ledger Ledger, programID, identity solana.PublicKey, store *Store, cfg ObserverConfig, log logging.Logger) *Observer {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Observer{
		ledger:    ledger,
		programID: programID,
		identity:  identity,
		store:     store,
		cfg:       cfg,
		log:       log.With("identity", identity.String()),
		ctx:       ctx,
		cancel:    cancel,
		timers:    make(map[*time.Timer]struct{}),
	}
}

func (o *Observer) Identity() solana.PublicKey { return o.identity }

// Snapshot returns the latest applied snapshot.
func (o *Observer) Snapshot() Snapshot { return o.store.Load() }

// Refresh reads the ledger and applies the result. A failed read leaves the
// stored snapshot alone, except that a confirmed state record with an
// unreadable balance is stored with a nil Balance. After Stop nothing is
// applied and ErrObserverStopped is returned.
func (o *Observer) Refresh(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ReadTimeout)
	defer cancel()

	snap, err := Fetch(ctx, o.ledger, o.programID, o.identity)
	if o.cfg.OnRefresh != nil {
		o.cfg.OnRefresh(snap, err)
	}

	if err != nil {
		if ctx.Err() == nil {
			o.log.Warn(ctx, "vault refresh failed", "error", err)
		}
		if !snap.Initialized {
			return o.store.Load(), err
		}
	}

	if !o.apply(snap) {
		return snap, ErrObserverStopped
	}
	if err == nil {
		o.log.Debug(ctx, "vault refreshed", "initialized", snap.Initialized, "balance", snap.DisplayBalance())
	}
	return snap, err
}

func (o *Observer) apply(snap Snapshot) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.store.Set(snap)
	return true
}

// Start refreshes immediately and then every Interval until Stop or until
// ctx is done. Calling it again is a no-op.
func (o *Observer) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true

	var pollCtx context.Context
	pollCtx, o.pollCancel = context.WithCancel(ctx)

	o.wg.Add(1)
	go o.poll(pollCtx)
}

func (o *Observer) poll(ctx context.Context) {
	defer o.wg.Done()

	_, _ = o.Refresh(ctx)

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = o.Refresh(ctx)
		}
	}
}

// ReconcileAfter schedules one refresh after delay. Pending reconciles are
// cancelled by Stop.
func (o *Observer) ReconcileAfter(delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		o.mu.Lock()
		delete(o.timers, t)
		if o.closed {
			o.mu.Unlock()
			return
		}
		o.wg.Add(1)
		o.mu.Unlock()

		defer o.wg.Done()
		_, _ = o.Refresh(o.ctx)
	})
	o.timers[t] = struct{}{}
}

// Stop tears the observer down. When it returns no refresh, periodic or
// in flight, can change the store any more.
func (o *Observer) Stop() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for t := range o.timers {
		t.Stop()
		delete(o.timers, t)
	}
	if o.pollCancel != nil {
		o.pollCancel()
	}
	o.cancel()
	o.mu.Unlock()

	o.wg.Wait()
}
