// Package config loads runtime configuration for the vault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml/.yml are read as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   RPC endpoint URL (default https://api.devnet.solana.com)
//	-k string   keypair file or base58 secret to connect at startup
//	-i int      vault poll interval in seconds (default 3)
//	-d int      post-action reconcile delay in milliseconds (default 1000)
//	-t int      confirmation timeout in seconds (default 30)
//	-l float    RPC requests per second, 0 disables throttling (default 10)
//	-s string   SQLite database path (default solvault.db)
//	-m string   metrics listen address (disabled when empty)
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds. auto_connect and log_level are only settable here.
//
//	rpc_endpoint: https://api.devnet.solana.com
//	keypair: ~/.config/solana/id.json
//	poll_interval: 3s
//	reconcile_delay: 1s
//	confirm_timeout: 30s
//	requests_per_second: 10
//	database_path: solvault.db
//	metrics_addr: 127.0.0.1:9464
//	auto_connect: true
//	log_level: warn
//
// The vault program identifier is not configurable; it comes from the
// program descriptor compiled into the binary.
package config
