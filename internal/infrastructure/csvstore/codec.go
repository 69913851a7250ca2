package csvstore

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

// MatchColumns is the header of a match CSV file, in canonical order.
var MatchColumns = []string{
	"match_id",
	"date",
	"home_team",
	"away_team",
	"season",
	"result_home",
	"result_away",
	"league",
	"market",
	"odds_opening",
	"odds_closing",
	"xg",
}

// OddsColumns is the header of an odds import file.
var OddsColumns = []string{
	"match_id",
	"date",
	"home_team",
	"away_team",
	"home_win_odds",
	"draw_odds",
	"away_win_odds",
	"bookmaker",
	"market_type",
}

var ErrBadHeader = crerr.New("csv header does not match expected columns")

// WriteMatches writes a header and one row per match. Odds and xg cells hold
// embedded JSON; nil values are written as empty cells.
func WriteMatches(w io.Writer, matches []match.Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MatchColumns); err != nil {
		return crerr.Wrap(err, "write header")
	}

	for _, m := range matches {
		opening, err := encodeJSONCell(m.OddsOpening)
		if err != nil {
			return crerr.Wrapf(err, "encode odds_opening for %s", m.ID)
		}
		closing, err := encodeJSONCell(m.OddsClosing)
		if err != nil {
			return crerr.Wrapf(err, "encode odds_closing for %s", m.ID)
		}
		xg, err := encodeJSONCell(m.XG)
		if err != nil {
			return crerr.Wrapf(err, "encode xg for %s", m.ID)
		}

		record := []string{
			m.ID,
			m.Date,
			m.HomeTeam,
			m.AwayTeam,
			m.Season,
			formatOptionalInt(m.ResultHome),
			formatOptionalInt(m.ResultAway),
			m.League,
			m.Market,
			opening,
			closing,
			xg,
		}
		if err := cw.Write(record); err != nil {
			return crerr.Wrapf(err, "write row for %s", m.ID)
		}
	}

	cw.Flush()
	return crerr.Wrap(cw.Error(), "flush csv")
}

// ReadMatches is the inverse of WriteMatches.
func ReadMatches(r io.Reader) ([]match.Match, error) {
	rows, err := readRows(r, MatchColumns)
	if err != nil {
		return nil, err
	}

	out := make([]match.Match, 0, len(rows))
	for idx, row := range rows {
		line := idx + 2
		m := match.Match{
			ID:       row["match_id"],
			Date:     row["date"],
			HomeTeam: row["home_team"],
			AwayTeam: row["away_team"],
			Season:   row["season"],
			League:   row["league"],
			Market:   row["market"],
		}
		if m.ResultHome, err = parseOptionalInt(row["result_home"]); err != nil {
			return nil, crerr.Wrapf(err, "line %d: result_home", line)
		}
		if m.ResultAway, err = parseOptionalInt(row["result_away"]); err != nil {
			return nil, crerr.Wrapf(err, "line %d: result_away", line)
		}
		if m.OddsOpening, err = decodeJSONCell[match.OddsSet](row["odds_opening"]); err != nil {
			return nil, crerr.Wrapf(err, "line %d: odds_opening", line)
		}
		if m.OddsClosing, err = decodeJSONCell[match.OddsSet](row["odds_closing"]); err != nil {
			return nil, crerr.Wrapf(err, "line %d: odds_closing", line)
		}
		if m.XG, err = decodeJSONCell[float64](row["xg"]); err != nil {
			return nil, crerr.Wrapf(err, "line %d: xg", line)
		}
		out = append(out, m)
	}
	return out, nil
}

// ReadOddsRows parses an odds import file into fragments. Team names are left
// as written; the caller normalizes them.
func ReadOddsRows(r io.Reader) ([]match.OddsFragment, error) {
	rows, err := readRows(r, OddsColumns)
	if err != nil {
		return nil, err
	}

	out := make([]match.OddsFragment, 0, len(rows))
	for idx, row := range rows {
		line := idx + 2
		home, errHome := strconv.ParseFloat(row["home_win_odds"], 64)
		draw, errDraw := strconv.ParseFloat(row["draw_odds"], 64)
		away, errAway := strconv.ParseFloat(row["away_win_odds"], 64)
		if err := firstError(errHome, errDraw, errAway); err != nil {
			return nil, crerr.Wrapf(err, "line %d: odds price", line)
		}

		out = append(out, match.OddsFragment{
			Date:     row["date"],
			HomeTeam: row["home_team"],
			AwayTeam: row["away_team"],
			Prices:   &match.OddsSet{Home: home, Draw: draw, Away: away},
		})
	}
	return out, nil
}

func readRows(r io.Reader, required []string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, crerr.Wrap(err, "read header")
	}

	index := make(map[string]int, len(header))
	for idx, col := range header {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = idx
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, crerr.Wrapf(ErrBadHeader, "missing column %q", col)
		}
	}

	var out []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, crerr.Wrap(err, "read row")
		}

		row := make(map[string]string, len(required))
		for _, col := range required {
			if idx := index[col]; idx < len(record) {
				row[col] = strings.TrimSpace(record[idx])
			}
		}
		out = append(out, row)
	}
}

func encodeJSONCell[T any](value *T) (string, error) {
	if value == nil {
		return "", nil
	}
	raw, err := sonic.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJSONCell[T any](cell string) (*T, error) {
	if cell == "" || cell == "null" || cell == "None" {
		return nil, nil
	}
	var out T
	if err := sonic.UnmarshalString(cell, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func formatOptionalInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func parseOptionalInt(cell string) (*int, error) {
	if cell == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(cell)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
