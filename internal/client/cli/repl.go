package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	isConnected() bool
	Connect(ctx context.Context, args []string) error
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) error
	Refresh(ctx context.Context) error
	Init(ctx context.Context) error
	Deposit(ctx context.Context, args []string) error
	Withdraw(ctx context.Context, args []string) error
	CloseVault(ctx context.Context) error
	History(ctx context.Context) error
	Lock(ctx context.Context, args []string) error
}

const (
	helpDisconnected = "Available commands: connect [keypair], lock <keypair> <out>, help, exit"
	helpConnected    = "Available commands: status, refresh, init, deposit <SOL>, withdraw <SOL>, close, history, disconnect, lock <keypair> <out>, help, exit"
)

// runREPL reads commands from scanner until EOF, exit/quit or ctx is done
// and dispatches them to a. Command errors are printed and the loop continues.
//
//	Disconnected:
//	  connect [keypair]   open a keypair file, keystore or base58 secret
//	  lock <in> <out>     write an encrypted keystore of a keypair
//	Connected:
//	  status              wallet, vault addresses, balance, last message
//	  refresh             read the vault state now
//	  init                create the vault
//	  deposit <SOL>       move SOL into the vault
//	  withdraw <SOL>      move SOL out of the vault
//	  close               close the vault and reclaim rent
//	  history             recent actions from the local journal
//	  disconnect          end the session and forget the wallet
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("solvault%s> ", statusFn()))
		if !scanner.Scan() || ctx.Err() != nil {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isConnected() {
				printlnFn(helpConnected)
			} else {
				printlnFn(helpDisconnected)
			}
		case "connect":
			err = a.Connect(ctx, args)
		case "disconnect":
			err = a.Disconnect(ctx)
		case "s", "status":
			err = a.Status(ctx)
		case "refresh":
			err = a.Refresh(ctx)
		case "init":
			err = a.Init(ctx)
		case "deposit":
			err = a.Deposit(ctx, args)
		case "withdraw":
			err = a.Withdraw(ctx, args)
		case "close":
			err = a.CloseVault(ctx)
		case "history":
			err = a.History(ctx)
		case "lock":
			err = a.Lock(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
