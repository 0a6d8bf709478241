package operations

import (
	"context"

	"github.com/dmitrijs2005/solvault/internal/client/models"
)

// Repository is the append-only journal of vault actions.
type Repository interface {
	Insert(ctx context.Context, op *models.Operation) error

	// ListRecent returns at most limit operations of identity, newest first.
	ListRecent(ctx context.Context, identity string, limit int) ([]models.Operation, error)
}
