package postgres

import (
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/sqlstore"
	qb "github.com/riskibarqy/epl-pipeline/internal/platform/querybuilder"
)

// NewMatchRepository stores matches in the matches table created by
// db/migrations. Odds columns are JSONB.
func NewMatchRepository(db *sqlx.DB) *sqlstore.MatchRepository {
	return sqlstore.NewMatchRepository(db, qb.Dollar)
}
