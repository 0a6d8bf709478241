// Package vault is the interaction core for a per-wallet custodial vault
// hosted by an on-chain program.
//
// # Components
//
//   - Derive maps a wallet identity to its AddressPair: the vault state
//     record (seeds "state" + identity) and the funds account (seeds
//     "vault" + state address), both program-derived addresses of the
//     program named in the embedded IDL.
//   - Observer polls the ledger for the state record and the funds balance
//     and publishes the latest Snapshot into a Store. It runs for the
//     lifetime of one wallet session and applies nothing after Stop.
//   - Orchestrator executes one Request (create, deposit, withdraw, close):
//     build, sign through an external Signer, submit at processed
//     commitment, then reconcile the Observer.
//   - Classify normalizes any failure into a Reason.
//
// The ledger and the signer are consumed through the Ledger and Signer
// interfaces; package client provides the JSON-RPC implementation and
// package wallet the keypair signer.
package vault
