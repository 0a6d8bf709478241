package vault

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the last observed vault state.
//
// Balance is nil when the vault is not initialized or the balance read
// failed; otherwise it is the funds account balance in SOL.
type Snapshot struct {
	Initialized bool
	Balance     *decimal.Decimal
	Lamports    uint64
	ObservedAt  time.Time
}

// DisplayBalance renders the balance for the status line.
func (s Snapshot) DisplayBalance() string {
	switch {
	case !s.Initialized:
		return "—"
	case s.Balance == nil:
		return "unavailable"
	default:
		return FormatSOL(*s.Balance)
	}
}

// Store holds the current Snapshot. Writers overwrite each other in
// completion order.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) Set(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Reset forgets the snapshot, e.g. when the session ends.
func (s *Store) Reset() {
	s.Set(Snapshot{})
}
