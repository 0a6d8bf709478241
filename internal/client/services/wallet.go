package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/solvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/solvault/internal/client/wallet"
	"github.com/dmitrijs2005/solvault/internal/common"
	"github.com/dmitrijs2005/solvault/internal/dbx"
	"github.com/dmitrijs2005/solvault/internal/filex"
	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/gagliardetto/solana-go"
)

// WalletService opens wallets and remembers the last one for auto-connect.
// Only the keypair file path and public key are stored, never key material.
type WalletService interface {
	// Open loads the wallet at source and, when it came from a file,
	// remembers it.
	Open(ctx context.Context, source string, pass wallet.PassphraseFunc) (*wallet.Wallet, error)
	// Restore reopens the remembered wallet. It returns nil, nil when there
	// is nothing to restore.
	Restore(ctx context.Context, pass wallet.PassphraseFunc) (*wallet.Wallet, error)
	Forget(ctx context.Context) error
	// Lock writes an encrypted keystore of the wallet at in to out.
	Lock(ctx context.Context, in, out string, pass wallet.PassphraseFunc, newPass []byte) (solana.PublicKey, error)
}

type walletService struct {
	db  *sql.DB
	log logging.Logger
}

func NewWalletService(db *sql.DB, log logging.Logger) WalletService {
	return &walletService{db: db, log: log}
}

func (s *walletService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

func (s *walletService) Open(ctx context.Context, source string, pass wallet.PassphraseFunc) (*wallet.Wallet, error) {
	w, err := wallet.Load(source, pass)
	if err != nil {
		return nil, err
	}
	if w.Source() == "" {
		return w, nil
	}
	if err := s.remember(ctx, w); err != nil {
		s.log.Warn(ctx, "failed to remember wallet", "error", err)
	}
	return w, nil
}

func (s *walletService) remember(ctx context.Context, w *wallet.Wallet) error {
	path, err := filepath.Abs(w.Source())
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.SetString(ctx, metadata.KeyWalletSource, path); err != nil {
			return err
		}
		return repo.SetString(ctx, metadata.KeyWalletIdentity, w.PublicKey().String())
	})
}

func (s *walletService) Restore(ctx context.Context, pass wallet.PassphraseFunc) (*wallet.Wallet, error) {
	repo := s.getMetadataRepo()

	source, err := repo.GetString(ctx, metadata.KeyWalletSource)
	if err != nil || source == "" {
		return nil, err
	}
	if !filex.Exists(source) {
		s.log.Warn(ctx, "remembered wallet is gone", "source", source)
		return nil, s.Forget(ctx)
	}

	w, err := wallet.Load(source, pass)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", source, err)
	}

	identity, err := repo.GetString(ctx, metadata.KeyWalletIdentity)
	if err != nil {
		w.Wipe()
		return nil, err
	}
	if identity != "" && identity != w.PublicKey().String() {
		w.Wipe()
		return nil, fmt.Errorf("%w: %s now holds %s, expected %s", wallet.ErrInvalidKey, source, w.PublicKey(), identity)
	}
	return w, nil
}

func (s *walletService) Forget(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, metadata.KeyWalletSource); err != nil {
			return err
		}
		return repo.Delete(ctx, metadata.KeyWalletIdentity)
	})
}

func (s *walletService) Lock(ctx context.Context, in, out string, pass wallet.PassphraseFunc, newPass []byte) (solana.PublicKey, error) {
	defer common.WipeByteArray(newPass)

	w, err := wallet.Load(in, pass)
	if err != nil {
		return solana.PublicKey{}, err
	}
	defer w.Wipe()

	ks, err := w.Lock(newPass)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := wallet.SaveKeystore(out, ks); err != nil {
		return solana.PublicKey{}, err
	}

	s.log.Info(ctx, "keystore written", "identity", w.PublicKey().String(), "path", out)
	return w.PublicKey(), nil
}
