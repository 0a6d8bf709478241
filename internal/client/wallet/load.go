package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/solvault/internal/common"
	"github.com/dmitrijs2005/solvault/internal/filex"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// PassphraseFunc asks the user for the passphrase of an encrypted keystore.
type PassphraseFunc func(prompt string) ([]byte, error)

// Load opens the wallet named by source: a path to a keygen or keystore
// file, or a base58-encoded 64-byte secret key.
func Load(source string, passphrase PassphraseFunc) (*Wallet, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrInvalidKey)
	}

	if !filex.Exists(source) {
		return fromBase58(source, "")
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(data)

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		key, err := solana.PrivateKeyFromSolanaKeygenFile(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		defer common.WipeByteArray(key)
		return newWallet(key, source)

	case len(trimmed) > 0 && trimmed[0] == '{':
		var ks Keystore
		if err := json.Unmarshal(trimmed, &ks); err != nil {
			return nil, fmt.Errorf("%w: keystore: %w", ErrInvalidKey, err)
		}
		if passphrase == nil {
			return nil, ErrNoPassphrase
		}
		pass, err := passphrase(fmt.Sprintf("Passphrase for %s: ", ks.PublicKey))
		if err != nil {
			return nil, err
		}
		defer common.WipeByteArray(pass)
		return ks.Unlock(pass, source)

	default:
		return fromBase58(string(trimmed), source)
	}
}

func fromBase58(s, source string) (*Wallet, error) {
	secret, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: not a keypair file or base58 secret", ErrInvalidKey)
	}
	defer common.WipeByteArray(secret)
	return newWallet(secret, source)
}
