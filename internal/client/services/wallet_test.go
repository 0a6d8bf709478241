package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/solvault/internal/client/client"
	"github.com/dmitrijs2005/solvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/solvault/internal/client/wallet"
	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWalletService(t *testing.T) (WalletService, *client.Repositories) {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return NewWalletService(repos.DB, logging.NewNopLogger()), repos
}

func writeKeygen(t *testing.T, dir string) (string, solana.PrivateKey) {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(dir, "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, key
}

func TestWalletService_OpenRemembersFile(t *testing.T) {
	svc, repos := newTestWalletService(t)
	ctx := context.Background()
	path, key := writeKeygen(t, t.TempDir())

	w, err := svc.Open(ctx, path, nil)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey())

	source, err := repos.Metadata.GetString(ctx, metadata.KeyWalletSource)
	require.NoError(t, err)
	assert.Equal(t, path, source)

	identity, err := repos.Metadata.GetString(ctx, metadata.KeyWalletIdentity)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().String(), identity)

	restored, err := svc.Restore(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, key.PublicKey(), restored.PublicKey())
}

func TestWalletService_InlineSecretNotRemembered(t *testing.T) {
	svc, repos := newTestWalletService(t)
	ctx := context.Background()

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = svc.Open(ctx, key.String(), nil)
	require.NoError(t, err)

	source, err := repos.Metadata.GetString(ctx, metadata.KeyWalletSource)
	require.NoError(t, err)
	assert.Empty(t, source)

	restored, err := svc.Restore(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestWalletService_RestoreForgetsMissingFile(t *testing.T) {
	svc, repos := newTestWalletService(t)
	ctx := context.Background()
	path, _ := writeKeygen(t, t.TempDir())

	_, err := svc.Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	restored, err := svc.Restore(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, restored)

	source, err := repos.Metadata.GetString(ctx, metadata.KeyWalletSource)
	require.NoError(t, err)
	assert.Empty(t, source)
}

func TestWalletService_RestoreDetectsSwappedKey(t *testing.T) {
	svc, _ := newTestWalletService(t)
	ctx := context.Background()
	dir := t.TempDir()
	path, _ := writeKeygen(t, dir)

	_, err := svc.Open(ctx, path, nil)
	require.NoError(t, err)

	writeKeygen(t, dir)

	_, err = svc.Restore(ctx, nil)
	require.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestWalletService_Forget(t *testing.T) {
	svc, repos := newTestWalletService(t)
	ctx := context.Background()
	path, _ := writeKeygen(t, t.TempDir())

	_, err := svc.Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Forget(ctx))

	for _, key := range []string{metadata.KeyWalletSource, metadata.KeyWalletIdentity} {
		v, err := repos.Metadata.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, v, key)
	}
}

func TestWalletService_Lock(t *testing.T) {
	svc, _ := newTestWalletService(t)
	ctx := context.Background()
	dir := t.TempDir()
	path, key := writeKeygen(t, dir)
	out := filepath.Join(dir, "locked.json")

	pub, err := svc.Lock(ctx, path, out, nil, []byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), pub)

	opened, err := svc.Open(ctx, out, func(string) ([]byte, error) { return []byte("hunter2"), nil })
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), opened.PublicKey())

	_, err = svc.Lock(ctx, path, out, nil, []byte("again"))
	require.Error(t, err, "existing keystore is kept")
}
