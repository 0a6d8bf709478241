package vault

import "errors"

var (
	// ErrDerivation means no program address could be found for the seeds.
	// It cannot happen for well-formed inputs.
	ErrDerivation = errors.New("address derivation failed")

	// ErrReadFailure wraps transient ledger read errors. Callers keep the last
	// snapshot and wait for the next poll.
	ErrReadFailure = errors.New("ledger read failed")

	// ErrSignerRejected means the signer declined or was unavailable.
	ErrSignerRejected = errors.New("signer rejected transaction")

	// ErrSubmissionFailed covers build, submit and confirmation failures.
	ErrSubmissionFailed = errors.New("transaction submission failed")

	// ErrAlreadyInitialized is reported when creating a vault that exists.
	ErrAlreadyInitialized = errors.New("vault already initialized")

	// ErrBusy is returned while another operation holds the single-flight gate.
	ErrBusy = errors.New("another operation is in progress")

	// ErrNoSession means no wallet is connected.
	ErrNoSession = errors.New("no wallet connected")

	ErrNotInitialized    = errors.New("vault is not initialized")
	ErrEmptyVault        = errors.New("vault balance is zero")
	ErrBalanceUnknown    = errors.New("vault balance unknown, refresh first")
	ErrInvalidAmount     = errors.New("amount must be a positive number of SOL")
	ErrObserverStopped   = errors.New("observer stopped")
	ErrInvalidDescriptor = errors.New("invalid program descriptor")
)
