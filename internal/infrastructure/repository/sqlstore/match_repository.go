package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	qb "github.com/riskibarqy/epl-pipeline/internal/platform/querybuilder"
)

// MatchRepository stores matches in a SQL table. The same queries serve
// postgres and sqlite; only the placeholder style differs.
type MatchRepository struct {
	db          *sqlx.DB
	placeholder qb.Placeholder
	now         func() time.Time
}

func NewMatchRepository(db *sqlx.DB, placeholder qb.Placeholder) *MatchRepository {
	return &MatchRepository{
		db:          db,
		placeholder: placeholder,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (r *MatchRepository) Exists(ctx context.Context, matchID string) (bool, error) {
	query, args, err := qb.Select("match_id").From(matchesTable).
		Where(qb.Eq("match_id", matchID)).
		Limit(1).
		PlaceholderFormat(r.placeholder).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build match exists query: %w", err)
	}

	var found string
	if err := r.db.GetContext(ctx, &found, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check match exists: %w", err)
	}
	return true, nil
}

func (r *MatchRepository) Insert(ctx context.Context, m match.Match) error {
	row, err := toTableModel(m, r.now())
	if err != nil {
		return fmt.Errorf("map match %s: %w", m.ID, err)
	}

	builder, err := qb.InsertModel(matchesTable, row)
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}
	query, args, err := builder.PlaceholderFormat(r.placeholder).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", match.ErrDuplicate, m.ID)
		}
		return fmt.Errorf("insert match %s: %w", m.ID, err)
	}
	return nil
}

func (r *MatchRepository) Update(ctx context.Context, matchID string, m match.Match) error {
	m.ID = matchID
	row, err := toTableModel(m, r.now())
	if err != nil {
		return fmt.Errorf("map match %s: %w", matchID, err)
	}

	builder, err := qb.UpdateModel(matchesTable, row, "match_id", "created_at")
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}
	query, args, err := builder.
		Where(qb.Eq("match_id", matchID)).
		PlaceholderFormat(r.placeholder).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match %s: %w", matchID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match %s rows affected: %w", matchID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", match.ErrNotFound, matchID)
	}
	return nil
}

func (r *MatchRepository) Select(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	conditions := make([]qb.Condition, 0, 3)
	if filter.Season != "" {
		conditions = append(conditions, qb.Eq("season", filter.Season))
	}
	if filter.Team != "" {
		conditions = append(conditions, qb.Or(
			qb.Eq("home_team", filter.Team),
			qb.Eq("away_team", filter.Team),
		))
	}
	if filter.WithoutOdds {
		conditions = append(conditions, qb.IsNull("odds_opening"))
	}

	query, args, err := qb.Select(qb.Columns(matchTableModel{})...).From(matchesTable).
		Where(conditions...).
		OrderBy("match_date", "match_id").
		PlaceholderFormat(r.placeholder).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode match %s: %w", row.MatchID, err)
		}
		out = append(out, item)
	}
	return out, nil
}
