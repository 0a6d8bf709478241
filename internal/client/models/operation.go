// Package models defines the records the client keeps in its local database.
package models

import "time"

type OperationStatus string

const (
	StatusConfirmed OperationStatus = "confirmed"
	StatusFailed    OperationStatus = "failed"
)

// Operation is one journaled vault action.
type Operation struct {
	ID        string
	Identity  string
	Kind      string
	Lamports  uint64
	Signature string
	Status    OperationStatus
	// Message is the status line that was shown for the action.
	Message   string
	CreatedAt time.Time
}
