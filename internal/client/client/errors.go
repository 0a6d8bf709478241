package client

import "errors"

var (
	ErrUnavailable       = errors.New("ledger unavailable")
	ErrRateLimited       = errors.New("ledger rate limit exceeded")
	ErrTransactionFailed = errors.New("transaction failed on chain")
	ErrConfirmTimeout    = errors.New("transaction not confirmed in time")
)
