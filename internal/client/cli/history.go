package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/solvault/internal/common"
	"github.com/dmitrijs2005/solvault/internal/vault"
)

const historyLimit = 20

// History prints the most recent journaled actions of the connected wallet.
func (a *App) History(ctx context.Context) error {
	ops, err := a.vault.History(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		a.println("No operations yet")
		return nil
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tAMOUNT\tSTATUS\tTX")
	for _, op := range ops {
		amount := "-"
		if op.Lamports > 0 {
			amount = vault.FormatSOL(vault.FromLamports(op.Lamports))
		}
		tx := "-"
		if op.Signature != "" {
			tx = common.Truncate(op.Signature, 8)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			op.CreatedAt.Format("2006-01-02 15:04:05"), op.Kind, amount, op.Status, tx)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	a.println(strings.TrimRight(b.String(), "\n"))
	return nil
}
