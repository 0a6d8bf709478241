package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/solvault/internal/flagx"
)

var knownFlags = []string{"-a", "-k", "-i", "-d", "-t", "-l", "-s", "-m"}

// parseFlags overlays cfg with the command-line flags it owns:
//
//	-a string   RPC endpoint URL
//	-k string   keypair file or base58 secret
//	-i int      poll interval (seconds)
//	-d int      reconcile delay (milliseconds)
//	-t int      confirmation timeout (seconds)
//	-l float    RPC requests per second (0 disables throttling)
//	-s string   SQLite database path
//	-m string   metrics listen address
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("solvault", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.RPCEndpoint, "a", cfg.RPCEndpoint, "RPC endpoint URL")
	fs.StringVar(&cfg.KeypairSource, "k", cfg.KeypairSource, "keypair file or base58 secret")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "poll interval (in seconds)")
	reconcileDelay := fs.Int("d", int(cfg.ReconcileDelay.Milliseconds()), "reconcile delay (in milliseconds)")
	confirmTimeout := fs.Int("t", int(cfg.ConfirmTimeout.Seconds()), "confirmation timeout (in seconds)")
	fs.Float64Var(&cfg.RequestsPerSecond, "l", cfg.RequestsPerSecond, "RPC requests per second")
	fs.StringVar(&cfg.DatabasePath, "s", cfg.DatabasePath, "SQLite database path")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Durations from the file may be finer than the flag units; only
	// overwrite them when the flag was given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.PollInterval = time.Duration(*pollInterval) * time.Second
		case "d":
			cfg.ReconcileDelay = time.Duration(*reconcileDelay) * time.Millisecond
		case "t":
			cfg.ConfirmTimeout = time.Duration(*confirmTimeout) * time.Second
		}
	})
	return nil
}
