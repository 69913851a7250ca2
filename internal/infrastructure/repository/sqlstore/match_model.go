package sqlstore

import (
	"database/sql"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

const matchesTable = "matches"

type matchTableModel struct {
	MatchID     string          `db:"match_id"`
	MatchDate   time.Time       `db:"match_date"`
	HomeTeam    string          `db:"home_team"`
	AwayTeam    string          `db:"away_team"`
	Season      string          `db:"season"`
	ResultHome  sql.NullInt64   `db:"result_home"`
	ResultAway  sql.NullInt64   `db:"result_away"`
	League      string          `db:"league"`
	Market      string          `db:"market"`
	OddsOpening sql.NullString  `db:"odds_opening"`
	OddsClosing sql.NullString  `db:"odds_closing"`
	XG          sql.NullFloat64 `db:"xg"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func toTableModel(m match.Match, now time.Time) (matchTableModel, error) {
	date, err := time.Parse(match.DateLayout, m.Date)
	if err != nil {
		return matchTableModel{}, err
	}
	opening, err := encodeOdds(m.OddsOpening)
	if err != nil {
		return matchTableModel{}, err
	}
	closing, err := encodeOdds(m.OddsClosing)
	if err != nil {
		return matchTableModel{}, err
	}

	row := matchTableModel{
		MatchID:     m.ID,
		MatchDate:   date,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		Season:      m.Season,
		ResultHome:  intToNull(m.ResultHome),
		ResultAway:  intToNull(m.ResultAway),
		League:      m.League,
		Market:      m.Market,
		OddsOpening: opening,
		OddsClosing: closing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if m.XG != nil {
		row.XG = sql.NullFloat64{Float64: *m.XG, Valid: true}
	}
	return row, nil
}

func (row matchTableModel) toDomain() (match.Match, error) {
	opening, err := decodeOdds(row.OddsOpening)
	if err != nil {
		return match.Match{}, err
	}
	closing, err := decodeOdds(row.OddsClosing)
	if err != nil {
		return match.Match{}, err
	}

	out := match.Match{
		ID:          row.MatchID,
		Date:        row.MatchDate.UTC().Format(match.DateLayout),
		HomeTeam:    row.HomeTeam,
		AwayTeam:    row.AwayTeam,
		Season:      row.Season,
		ResultHome:  nullToInt(row.ResultHome),
		ResultAway:  nullToInt(row.ResultAway),
		League:      row.League,
		Market:      row.Market,
		OddsOpening: opening,
		OddsClosing: closing,
	}
	if row.XG.Valid {
		xg := row.XG.Float64
		out.XG = &xg
	}
	return out, nil
}

func encodeOdds(odds *match.OddsSet) (sql.NullString, error) {
	if odds == nil {
		return sql.NullString{}, nil
	}
	raw, err := sonic.MarshalString(odds)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: raw, Valid: true}, nil
}

func decodeOdds(value sql.NullString) (*match.OddsSet, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var out match.OddsSet
	if err := sonic.UnmarshalString(value.String, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func intToNull(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullToInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	out := int(value.Int64)
	return &out
}
