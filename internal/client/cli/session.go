package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/solvault/internal/vault"
)

var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Connect opens the wallet named by args[0], or asks for one, and starts a
// vault session for it. Any previous session is replaced.
func (a *App) Connect(ctx context.Context, args []string) error {
	var source string
	if len(args) > 0 {
		source = strings.Join(args, " ")
	} else {
		var err error
		source, err = getSimpleText(a.reader, "Keypair file or base58 secret key:", a.out)
		if err != nil {
			return err
		}
	}
	if source == "" {
		return errors.New("keypair source is required")
	}

	w, err := a.wallets.Open(ctx, source, a.passphrase)
	if err != nil {
		return err
	}
	if err := a.vault.Connect(ctx, w); err != nil {
		w.Wipe()
		return err
	}
	a.println("Connected as", w.PublicKey().String())
	return nil
}

// Disconnect ends the session and forgets the remembered wallet.
func (a *App) Disconnect(ctx context.Context) error {
	if !a.isConnected() {
		return vault.ErrNoSession
	}
	a.vault.Disconnect(ctx)
	if err := a.wallets.Forget(ctx); err != nil {
		a.log.Warn(ctx, "failed to forget wallet", "error", err)
	}
	a.println("Disconnected")
	return nil
}

func (a *App) Status(_ context.Context) error {
	id, ok := a.vault.Identity()
	if !ok {
		return vault.ErrNoSession
	}
	pair, _ := a.vault.Addresses()
	snap := a.vault.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "Wallet:  %s\n", id)
	fmt.Fprintf(&b, "State:   %s\n", pair.State)
	fmt.Fprintf(&b, "Vault:   %s\n", pair.Funds)
	fmt.Fprintf(&b, "Balance: %s SOL\n", snap.DisplayBalance())
	if !snap.ObservedAt.IsZero() {
		fmt.Fprintf(&b, "Updated: %s\n", snap.ObservedAt.Format("15:04:05"))
	}
	fmt.Fprintf(&b, "Network: %s\n", a.currentMode())
	if a.vault.Busy() {
		b.WriteString("Busy:    an operation is in progress\n")
	}
	if msg := a.vault.LastMessage(); msg != "" {
		fmt.Fprintf(&b, "Last:    %s\n", msg)
	}

	a.println(strings.TrimRight(b.String(), "\n"))
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	snap, err := a.vault.Refresh(ctx)
	if err != nil {
		return err
	}
	a.println("Balance:", snap.DisplayBalance(), "SOL")
	return nil
}
