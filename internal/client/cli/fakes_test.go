package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/solvault/internal/client/config"
	"github.com/dmitrijs2005/solvault/internal/client/models"
	"github.com/dmitrijs2005/solvault/internal/client/wallet"
	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/dmitrijs2005/solvault/internal/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

type fakeVault struct {
	mu sync.Mutex

	signer   vault.Signer
	snap     vault.Snapshot
	busy     bool
	last     string
	pingErr  error
	execErr  error
	outcome  *vault.Outcome
	history  []models.Operation
	executed []vault.Request
	pings    int
	closed   bool
}

func (f *fakeVault) Connect(_ context.Context, signer vault.Signer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signer = signer
	return nil
}

func (f *fakeVault) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signer = nil
}

func (f *fakeVault) Identity() (solana.PublicKey, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signer == nil {
		return solana.PublicKey{}, false
	}
	return f.signer.PublicKey(), true
}

func (f *fakeVault) Addresses() (vault.AddressPair, bool) {
	id, ok := f.Identity()
	if !ok {
		return vault.AddressPair{}, false
	}
	return vault.Derive(id, vault.DefaultProgram().ID), true
}

func (f *fakeVault) Snapshot() vault.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeVault) Refresh(context.Context) (vault.Snapshot, error) {
	if _, ok := f.Identity(); !ok {
		return vault.Snapshot{}, vault.ErrNoSession
	}
	return f.Snapshot(), nil
}

func (f *fakeVault) Execute(_ context.Context, r vault.Request) (vault.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, r)
	if f.execErr != nil {
		return vault.Outcome{}, f.execErr
	}
	if f.outcome != nil {
		o := *f.outcome
		o.Request = r
		return o, nil
	}
	return vault.Outcome{Request: r, Signature: solana.Signature{1, 2, 3}}, nil
}

func (f *fakeVault) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakeVault) LastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeVault) History(context.Context, int) ([]models.Operation, error) {
	if _, ok := f.Identity(); !ok {
		return nil, vault.ErrNoSession
	}
	return f.history, nil
}

func (f *fakeVault) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeVault) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeVault) requests() []vault.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vault.Request(nil), f.executed...)
}

type fakeWallets struct {
	restore    *wallet.Wallet
	restoreErr error
	opened     []string
	forgotten  int
	locked     [][2]string
	lockPass   []byte
}

func (f *fakeWallets) Open(_ context.Context, source string, pass wallet.PassphraseFunc) (*wallet.Wallet, error) {
	f.opened = append(f.opened, source)
	return wallet.Load(source, pass)
}

func (f *fakeWallets) Restore(context.Context, wallet.PassphraseFunc) (*wallet.Wallet, error) {
	return f.restore, f.restoreErr
}

func (f *fakeWallets) Forget(context.Context) error {
	f.forgotten++
	return nil
}

func (f *fakeWallets) Lock(_ context.Context, in, out string, _ wallet.PassphraseFunc, newPass []byte) (solana.PublicKey, error) {
	f.locked = append(f.locked, [2]string{in, out})
	f.lockPass = append([]byte(nil), newPass...)
	return solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"), nil
}

type fixture struct {
	app     *App
	vault   *fakeVault
	wallets *fakeWallets
	out     *bytes.Buffer
	cfg     *config.Config
}

func newFixture(t *testing.T, input string) *fixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AutoConnect = false

	fv := &fakeVault{}
	fw := &fakeWallets{}
	out := &bytes.Buffer{}
	a := newApp(cfg, fv, fw, logging.NewNopLogger(), bytes.NewBufferString(input), out)
	return &fixture{app: a, vault: fv, wallets: fw, out: out, cfg: cfg}
}

// secret returns a base58 secret key and its public key.
func secret(t *testing.T) (string, solana.PublicKey) {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.String(), key.PublicKey()
}

func (f *fixture) connect(t *testing.T) solana.PublicKey {
	t.Helper()
	src, pub := secret(t)
	require.NoError(t, f.app.Connect(context.Background(), []string{src}))
	return pub
}
