// Package cli provides the interactive vault client.
//
// It wires configuration, the local database, the RPC client and the vault
// services, then runs a REPL. A background watcher pings the RPC endpoint
// and switches the prompt between online and offline mode.
//
// Key features:
//   - Connect / Disconnect a wallet (keypair file, encrypted keystore or
//     base58 secret), with the last file reopened on startup
//   - Init, Deposit, Withdraw and Close the vault; submissions run in the
//     background and report their outcome when confirmed
//   - Status and Refresh of the observed vault state
//   - History of submitted actions from the local journal
//   - Lock a keypair file into an encrypted keystore
//
// App.Run blocks until the user exits. See runREPL for the command set.
package cli
