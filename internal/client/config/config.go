package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the vault CLI.
type Config struct {
	// RPCEndpoint is the Solana JSON-RPC URL.
	RPCEndpoint string
	// KeypairSource is connected at startup when set: a keypair file path or
	// a base58 secret.
	KeypairSource string
	// PollInterval is the vault observer period.
	PollInterval time.Duration
	// ReconcileDelay is the wait before the post-action refresh.
	ReconcileDelay time.Duration
	// ConfirmTimeout bounds the wait for a submitted transaction.
	ConfirmTimeout time.Duration
	// RequestsPerSecond throttles RPC calls; zero disables throttling.
	RequestsPerSecond float64
	// DatabasePath is the local SQLite file.
	DatabasePath string
	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string
	// AutoConnect reopens the last wallet at startup.
	AutoConnect bool
	LogLevel    string
}

const DefaultRPCEndpoint = "https://api.devnet.solana.com"

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.RPCEndpoint = DefaultRPCEndpoint
	c.KeypairSource = ""
	c.PollInterval = 3 * time.Second
	c.ReconcileDelay = time.Second
	c.ConfirmTimeout = 30 * time.Second
	c.RequestsPerSecond = 10
	c.DatabasePath = "solvault.db"
	c.MetricsAddr = ""
	c.AutoConnect = true
	c.LogLevel = "warn"
}

// LoadConfig applies defaults, then the config file named by -c/-config (if
// any), then command-line flags. Later sources take precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	return cfg, nil
}
