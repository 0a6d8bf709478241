package cli

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/solvault/internal/common"
)

var errPassphraseMismatch = errors.New("passphrases do not match")

// Lock writes an encrypted keystore of the keypair at args[0] to args[1].
func (a *App) Lock(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: lock <keypair> <keystore>")
	}

	newPass, err := getPassword(a.out, "New passphrase: ")
	if err != nil {
		return err
	}
	repeat, err := getPassword(a.out, "Repeat passphrase: ")
	defer common.WipeByteArray(repeat)
	if err != nil {
		common.WipeByteArray(newPass)
		return err
	}
	if subtle.ConstantTimeCompare(newPass, repeat) != 1 {
		common.WipeByteArray(newPass)
		return errPassphraseMismatch
	}

	id, err := a.wallets.Lock(ctx, args[0], args[1], a.passphrase, newPass)
	if err != nil {
		return err
	}
	a.println("Keystore for", id.String(), "written to", args[1])
	return nil
}
