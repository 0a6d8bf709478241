package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/solvault/internal/client/migrations"
	"github.com/dmitrijs2005/solvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/solvault/internal/client/repositories/operations"
	"github.com/dmitrijs2005/solvault/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB         *sql.DB
	Metadata   metadata.Repository
	Operations operations.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite file at path and brings
// its schema up to date.
func InitDatabase(ctx context.Context, path string) (*Repositories, error) {
	if path != ":memory:" {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:         db,
		Metadata:   metadata.NewSQLiteRepository(db),
		Operations: operations.NewSQLiteRepository(db),
	}, nil
}
