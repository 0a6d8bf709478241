// Package operations persists the local journal of submitted vault actions.
//
// The journal is informational only: the ledger stays the source of truth
// for vault state, and nothing is replayed from it.
package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/solvault/internal/client/models"
	"github.com/dmitrijs2005/solvault/internal/dbx"
)

// SQLiteRepository implements Repository over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, op *models.Operation) error {
	query := `INSERT INTO operations (id, identity, kind, lamports, signature, status, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		op.ID, op.Identity, op.Kind, int64(op.Lamports), op.Signature,
		string(op.Status), op.Message, op.CreatedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, identity string, limit int) ([]models.Operation, error) {
	query := `SELECT id, identity, kind, lamports, signature, status, message, created_at
		FROM operations WHERE identity = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select operations: %w", err)
	}
	defer rows.Close()

	var result []models.Operation
	for rows.Next() {
		var (
			op       models.Operation
			lamports int64
			status   string
			created  int64
		)
		if err := rows.Scan(&op.ID, &op.Identity, &op.Kind, &lamports, &op.Signature, &status, &op.Message, &created); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		op.Lamports = uint64(lamports)
		op.Status = models.OperationStatus(status)
		op.CreatedAt = time.Unix(0, created).UTC()
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}
	return result, nil
}
