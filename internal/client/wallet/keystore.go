package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/solvault/internal/common"
	"github.com/dmitrijs2005/solvault/internal/cryptox"
	"github.com/dmitrijs2005/solvault/internal/filex"
)

const keystoreVersion = 1

// Keystore is a secret key sealed under a passphrase. []byte fields are
// base64 in JSON.
type Keystore struct {
	Version    int    `json:"version"`
	PublicKey  string `json:"public_key"`
	Salt       []byte `json:"salt"`
	Checksum   []byte `json:"checksum"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Lock seals the wallet key under passphrase.
func (w *Wallet) Lock(passphrase []byte) (*Keystore, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.key == nil {
		return nil, ErrLocked
	}
	if len(passphrase) == 0 {
		return nil, ErrNoPassphrase
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	ct, nonce, err := cryptox.Seal(w.key, key)
	if err != nil {
		return nil, err
	}

	return &Keystore{
		Version:    keystoreVersion,
		PublicKey:  w.PublicKey().String(),
		Salt:       salt,
		Checksum:   cryptox.Checksum(key),
		Nonce:      nonce,
		Ciphertext: ct,
	}, nil
}

// Unlock opens the keystore with passphrase.
func (k *Keystore) Unlock(passphrase []byte, source string) (*Wallet, error) {
	if k.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", k.Version)
	}

	key := cryptox.DeriveKey(passphrase, k.Salt)
	defer common.WipeByteArray(key)

	if !bytes.Equal(cryptox.Checksum(key), k.Checksum) {
		return nil, ErrWrongPassphrase
	}

	secret, err := cryptox.Open(k.Ciphertext, k.Nonce, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrongPassphrase, err)
	}
	defer common.WipeByteArray(secret)

	w, err := newWallet(secret, source)
	if err != nil {
		return nil, err
	}
	if k.PublicKey != "" && w.PublicKey().String() != k.PublicKey {
		return nil, fmt.Errorf("%w: keystore public key mismatch", ErrInvalidKey)
	}
	return w, nil
}

// SaveKeystore writes k to path with owner-only permissions. An existing
// file is not overwritten.
func SaveKeystore(path string, k *Keystore) error {
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return err
	}
	if filex.Exists(abs) {
		return fmt.Errorf("%s already exists", abs)
	}

	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(abs, data, 0o600)
}
