package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/solvault/internal/client/client"
	"github.com/dmitrijs2005/solvault/internal/client/models"
	"github.com/dmitrijs2005/solvault/internal/client/wallet"
	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/dmitrijs2005/solvault/internal/metrics"
	"github.com/dmitrijs2005/solvault/internal/vault"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVaultService(t *testing.T) (VaultService, *fakeLedger, *client.Repositories, *metrics.Metrics) {
	t.Helper()

	repos, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	ledger := newFakeLedger()
	m := metrics.New()
	svc := NewVaultService(ledger, vault.DefaultProgram(), repos.Operations, m, VaultServiceConfig{
		PollInterval:   20 * time.Millisecond,
		ReconcileDelay: 10 * time.Millisecond,
	}, logging.NewNopLogger())
	t.Cleanup(func() { svc.Disconnect(context.Background()) })

	return svc, ledger, repos, m
}

func TestVaultService_RequiresSession(t *testing.T) {
	svc, ledger, _, _ := newTestVaultService(t)
	ctx := context.Background()

	_, err := svc.Execute(ctx, vault.Create())
	require.ErrorIs(t, err, vault.ErrNoSession)

	_, err = svc.Refresh(ctx)
	require.ErrorIs(t, err, vault.ErrNoSession)

	_, err = svc.History(ctx, 10)
	require.ErrorIs(t, err, vault.ErrNoSession)

	_, ok := svc.Identity()
	assert.False(t, ok)
	assert.False(t, svc.Busy())
	assert.Empty(t, svc.LastMessage())
	assert.Equal(t, vault.Snapshot{}, svc.Snapshot())
	assert.Zero(t, ledger.submissions())

	require.ErrorIs(t, svc.Connect(ctx, nil), vault.ErrNoSession)
}

func TestVaultService_SessionLifecycle(t *testing.T) {
	svc, ledger, _, _ := newTestVaultService(t)
	ctx := context.Background()
	w := newWallet(t)

	require.NoError(t, svc.Connect(ctx, w))
	id, ok := svc.Identity()
	require.True(t, ok)
	assert.Equal(t, w.PublicKey(), id)

	pair, ok := svc.Addresses()
	require.True(t, ok)
	assert.Equal(t, vault.Derive(w.PublicKey(), vault.DefaultProgram().ID), pair)

	require.Eventually(t, func() bool {
		return !svc.Snapshot().ObservedAt.IsZero()
	}, time.Second, 5*time.Millisecond)
	assert.False(t, svc.Snapshot().Initialized)

	_, err := svc.Execute(ctx, vault.Deposit(1))
	require.ErrorIs(t, err, vault.ErrNotInitialized)
	assert.Zero(t, ledger.submissions())

	out, err := svc.Execute(ctx, vault.Create())
	require.NoError(t, err)
	require.True(t, out.Succeeded(), out.Message())
	assert.Equal(t, out.Message(), svc.LastMessage())
	require.Eventually(t, func() bool { return svc.Snapshot().Initialized }, time.Second, 5*time.Millisecond)

	_, err = svc.Execute(ctx, vault.Withdraw(1))
	require.ErrorIs(t, err, vault.ErrEmptyVault)

	out, err = svc.Execute(ctx, vault.Deposit(250_000_000))
	require.NoError(t, err)
	require.True(t, out.Succeeded(), out.Message())
	require.Eventually(t, func() bool {
		return svc.Snapshot().DisplayBalance() == "0.2500"
	}, time.Second, 5*time.Millisecond)

	svc.Disconnect(ctx)
	_, ok = svc.Identity()
	assert.False(t, ok)
	assert.Equal(t, vault.Snapshot{}, svc.Snapshot())

	_, err = w.SignTransaction(ctx, nil)
	require.Error(t, err, "wallet is wiped on disconnect")
}

func TestVaultService_JournalsOutcomes(t *testing.T) {
	svc, ledger, _, m := newTestVaultService(t)
	ctx := context.Background()
	w := newWallet(t)
	require.NoError(t, svc.Connect(ctx, w))

	ok, err := svc.Execute(ctx, vault.Create())
	require.NoError(t, err)
	require.True(t, ok.Succeeded())

	failed, err := svc.Execute(ctx, vault.Create())
	require.NoError(t, err)
	require.False(t, failed.Succeeded())
	assert.Equal(t, "Vault already initialized for this wallet.", failed.Message())
	assert.Equal(t, 2, ledger.submissions())

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	byStatus := map[models.OperationStatus]models.Operation{}
	for _, op := range history {
		byStatus[op.Status] = op
		assert.Equal(t, w.PublicKey().String(), op.Identity)
		assert.Equal(t, "create", op.Kind)
	}
	assert.Equal(t, ok.Signature.String(), byStatus[models.StatusConfirmed].Signature)
	assert.Empty(t, byStatus[models.StatusFailed].Signature)
	assert.Equal(t, "Vault already initialized for this wallet.", byStatus[models.StatusFailed].Message)

	count, err := testutil.GatherAndCount(m.Registry(), "solvault_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestVaultService_ReconnectReplacesSession(t *testing.T) {
	svc, _, _, _ := newTestVaultService(t)
	ctx := context.Background()

	first := newWallet(t)
	second := newWallet(t)
	require.NoError(t, svc.Connect(ctx, first))
	require.NoError(t, svc.Connect(ctx, second))

	id, ok := svc.Identity()
	require.True(t, ok)
	assert.Equal(t, second.PublicKey(), id)

	_, err := first.SignTransaction(ctx, nil)
	require.Error(t, err)
}

func TestVaultService_PingAndClose(t *testing.T) {
	svc, ledger, _, _ := newTestVaultService(t)
	ctx := context.Background()

	require.NoError(t, svc.Ping(ctx))
	require.NoError(t, svc.Connect(ctx, newWallet(t)))
	require.NoError(t, svc.Close(ctx))

	_, ok := svc.Identity()
	assert.False(t, ok)
	assert.True(t, ledger.closed)
}

func TestVaultService_DisconnectDuringSigning(t *testing.T) {
	svc, ledger, _, _ := newTestVaultService(t)
	ctx := context.Background()
	signer := newGatedSigner(t)
	require.NoError(t, svc.Connect(ctx, signer))

	type result struct {
		out vault.Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := svc.Execute(ctx, vault.Create())
		done <- result{out, err}
	}()

	select {
	case <-signer.entered:
	case <-time.After(time.Second):
		t.Fatal("signer was not called")
	}

	svc.Disconnect(ctx)
	_, ok := svc.Identity()
	assert.False(t, ok)

	_, err := svc.Execute(ctx, vault.Create())
	require.ErrorIs(t, err, vault.ErrNoSession)

	close(signer.release)
	var res result
	select {
	case res = <-done:
	case <-time.After(time.Second):
		t.Fatal("execute did not finish")
	}
	require.NoError(t, res.err)
	require.True(t, res.out.Succeeded(), res.out.Message())
	assert.Equal(t, 1, ledger.submissions())

	_, err = signer.Wallet.SignTransaction(ctx, nil)
	require.ErrorIs(t, err, wallet.ErrLocked, "wallet is wiped once the action finishes")
}

func TestVaultService_ConcurrentConnect(t *testing.T) {
	svc, ledger, _, _ := newTestVaultService(t)
	ctx := context.Background()

	wallets := make([]*wallet.Wallet, 8)
	for i := range wallets {
		wallets[i] = newWallet(t)
	}

	var wg sync.WaitGroup
	for _, w := range wallets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Connect(ctx, w))
		}()
	}
	wg.Wait()

	id, ok := svc.Identity()
	require.True(t, ok)
	live := 0
	for _, w := range wallets {
		_, err := w.SignTransaction(ctx, nil)
		if errors.Is(err, wallet.ErrLocked) {
			continue
		}
		live++
		assert.Equal(t, w.PublicKey(), id)
	}
	assert.Equal(t, 1, live, "only the current session keeps its wallet")

	svc.Disconnect(ctx)
	reads := ledger.accountReads()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, reads, ledger.accountReads(), "no observer keeps polling after disconnect")
}

func TestVaultService_ReconnectSameSigner(t *testing.T) {
	svc, _, _, _ := newTestVaultService(t)
	ctx := context.Background()
	w := newWallet(t)

	require.NoError(t, svc.Connect(ctx, w))
	require.NoError(t, svc.Connect(ctx, w))

	out, err := svc.Execute(ctx, vault.Create())
	require.NoError(t, err)
	require.True(t, out.Succeeded(), out.Message())
}
