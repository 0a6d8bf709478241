package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/solvault/internal/client/client"
	"github.com/dmitrijs2005/solvault/internal/client/config"
	"github.com/dmitrijs2005/solvault/internal/client/services"
	"github.com/dmitrijs2005/solvault/internal/client/wallet"
	"github.com/dmitrijs2005/solvault/internal/common"
	"github.com/dmitrijs2005/solvault/internal/logging"
	"github.com/dmitrijs2005/solvault/internal/metrics"
	"github.com/dmitrijs2005/solvault/internal/vault"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	vault   services.VaultService
	wallets services.WalletService
	metrics *metrics.Metrics
	log     logging.Logger
	reader  *bufio.Reader

	outMu sync.Mutex
	out   io.Writer

	modeMu sync.RWMutex
	mode   Mode

	// actions tracks submissions still running in the background.
	actions sync.WaitGroup
	closers []func() error
}

// NewApp opens the local database and wires the RPC client, metrics and
// services described by c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	m := metrics.New()
	rpcClient := client.NewRPCClient(c.RPCEndpoint, client.Options{
		RequestsPerSecond: c.RequestsPerSecond,
		ConfirmTimeout:    c.ConfirmTimeout,
		Metrics:           m,
	}, log)

	vs := services.NewVaultService(rpcClient, vault.DefaultProgram(), repos.Operations, m, services.VaultServiceConfig{
		PollInterval:   c.PollInterval,
		ReconcileDelay: c.ReconcileDelay,
	}, log)
	ws := services.NewWalletService(repos.DB, log)

	a := newApp(c, vs, ws, log, os.Stdin, os.Stdout)
	a.metrics = m
	a.closers = append(a.closers, repos.Close)
	return a, nil
}

func newApp(c *config.Config, vs services.VaultService, ws services.WalletService, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:  c,
		vault:   vs,
		wallets: ws,
		log:     log,
		reader:  bufio.NewReader(in),
		out:     out,
		mode:    ModeOffline,
	}
}

// Run starts the background workers and the REPL, and blocks until the user
// exits or ctx is cancelled. Submissions still in flight are awaited before
// the services are closed.
func (a *App) Run(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		a.StartOnlineStatusWatcher(watchCtx, a.config.PollInterval)
	}()

	if a.config.MetricsAddr != "" && a.metrics != nil {
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := a.metrics.Serve(watchCtx, a.config.MetricsAddr); err != nil {
				a.log.Error(watchCtx, "metrics endpoint stopped", "addr", a.config.MetricsAddr, "error", err)
			}
		}()
	}

	a.autoConnect(ctx)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))

	a.actions.Wait()
	cancel()
	workers.Wait()
	return a.close(context.WithoutCancel(ctx))
}

func (a *App) close(ctx context.Context) error {
	errs := []error{a.vault.Close(ctx)}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// autoConnect opens the configured keypair, or else the remembered one.
// Failures are reported and leave the app disconnected.
func (a *App) autoConnect(ctx context.Context) {
	if a.config.KeypairSource != "" {
		if err := a.Connect(ctx, []string{a.config.KeypairSource}); err != nil {
			a.println("Error:", err)
		}
		return
	}
	if !a.config.AutoConnect {
		return
	}

	w, err := a.wallets.Restore(ctx, a.passphrase)
	if err != nil {
		a.println("Could not restore the last wallet:", err)
		return
	}
	if w == nil {
		return
	}
	a.startSession(ctx, w)
}

func (a *App) startSession(ctx context.Context, w *wallet.Wallet) {
	if err := a.vault.Connect(ctx, w); err != nil {
		w.Wipe()
		a.println("Error:", err)
		return
	}
	a.println("Connected as", w.PublicKey().String())
}

func (a *App) passphrase(prompt string) ([]byte, error) {
	return getPassword(a.out, prompt)
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) isConnected() bool {
	_, ok := a.vault.Identity()
	return ok
}

func (a *App) currentMode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", string(mode))
	}
}

// getStatus renders the prompt suffix, e.g. " [9WzD...AWWM online busy]".
func (a *App) getStatus() string {
	id, ok := a.vault.Identity()
	if !ok {
		return fmt.Sprintf(" [%s]", a.currentMode())
	}
	s := fmt.Sprintf(" [%s %s", common.Truncate(id.String(), 4), a.currentMode())
	if a.vault.Busy() {
		s += " busy"
	}
	return s + "]"
}

// StartOnlineStatusWatcher probes the RPC endpoint once and then every
// interval, switching between online and offline mode until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	probe := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := a.vault.Ping(pingCtx)
		cancel()

		if err != nil {
			a.setMode(ModeOffline)
		} else {
			a.setMode(ModeOnline)
		}
	}

	probe()

	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probe()
		case <-ctx.Done():
			return
		}
	}
}
