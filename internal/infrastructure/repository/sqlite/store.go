package sqlite

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/sqlstore"
	qb "github.com/riskibarqy/epl-pipeline/internal/platform/querybuilder"
)

//go:embed schema.sql
var schemaSQL string

// Open creates or opens the database file at path and applies the schema.
// Safe to call on an existing file.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return db, nil
}

func NewMatchRepository(db *sqlx.DB) *sqlstore.MatchRepository {
	return sqlstore.NewMatchRepository(db, qb.Question)
}
