package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/solvault/internal/flagx"
	"github.com/dmitrijs2005/solvault/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of the config file. Absent keys leave
// the current value alone.
type fileConfig struct {
	RPCEndpoint       *string         `json:"rpc_endpoint" yaml:"rpc_endpoint"`
	KeypairSource     *string         `json:"keypair" yaml:"keypair"`
	PollInterval      *timex.Duration `json:"poll_interval" yaml:"poll_interval"`
	ReconcileDelay    *timex.Duration `json:"reconcile_delay" yaml:"reconcile_delay"`
	ConfirmTimeout    *timex.Duration `json:"confirm_timeout" yaml:"confirm_timeout"`
	RequestsPerSecond *float64        `json:"requests_per_second" yaml:"requests_per_second"`
	DatabasePath      *string         `json:"database_path" yaml:"database_path"`
	MetricsAddr       *string         `json:"metrics_addr" yaml:"metrics_addr"`
	AutoConnect       *bool           `json:"auto_connect" yaml:"auto_connect"`
	LogLevel          *string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file passed via -c/-config. Files ending
// in .yaml or .yml are YAML, everything else JSON.
func parseFile(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}
	return loadFile(cfg, path)
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.RPCEndpoint != nil {
		cfg.RPCEndpoint = *fc.RPCEndpoint
	}
	if fc.KeypairSource != nil {
		cfg.KeypairSource = *fc.KeypairSource
	}
	if fc.PollInterval != nil {
		cfg.PollInterval = fc.PollInterval.Duration
	}
	if fc.ReconcileDelay != nil {
		cfg.ReconcileDelay = fc.ReconcileDelay.Duration
	}
	if fc.ConfirmTimeout != nil {
		cfg.ConfirmTimeout = fc.ConfirmTimeout.Duration
	}
	if fc.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *fc.RequestsPerSecond
	}
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	if fc.AutoConnect != nil {
		cfg.AutoConnect = *fc.AutoConnect
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
}
