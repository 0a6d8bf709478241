package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/solvault/internal/vault"
)

func (a *App) Init(ctx context.Context) error {
	return a.submit(ctx, vault.Create())
}

func (a *App) Deposit(ctx context.Context, args []string) error {
	lamports, err := amountArg("deposit", args)
	if err != nil {
		return err
	}
	return a.submit(ctx, vault.Deposit(lamports))
}

func (a *App) Withdraw(ctx context.Context, args []string) error {
	lamports, err := amountArg("withdraw", args)
	if err != nil {
		return err
	}
	return a.submit(ctx, vault.Withdraw(lamports))
}

func (a *App) CloseVault(ctx context.Context) error {
	return a.submit(ctx, vault.Close())
}

func amountArg(cmd string, args []string) (uint64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <SOL>", cmd)
	}
	return vault.ParseSOL(args[0])
}

// submit runs r in the background so the prompt stays usable while the
// transaction confirms. The outcome is printed when it lands.
func (a *App) submit(ctx context.Context, r vault.Request) error {
	if !a.isConnected() {
		return vault.ErrNoSession
	}
	if a.vault.Busy() {
		return vault.ErrBusy
	}

	a.println("Submitting", r.String()+"...")

	a.actions.Add(1)
	go func() {
		defer a.actions.Done()

		outcome, err := a.vault.Execute(ctx, r)
		if err != nil {
			a.println("Error:", err)
			return
		}
		a.println(outcome.Message())
	}()
	return nil
}
