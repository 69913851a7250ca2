package match

import (
	"fmt"
	"strings"
	"time"
)

const (
	League    = "Premier League"
	Market1X2 = "1X2"

	// DateLayout is the ISO calendar date every match carries.
	DateLayout = "2006-01-02"

	idPrefix = "EPL_"
)

// Outcome codes of a head-to-head market.
const (
	OutcomeHome = "1"
	OutcomeDraw = "X"
	OutcomeAway = "2"
)

// OddsSet is a full 1X2 price set. It cannot be partially populated.
type OddsSet struct {
	Home float64 `json:"1"`
	Draw float64 `json:"X"`
	Away float64 `json:"2"`
}

// Match is the canonical record of one fixture after both sources are reconciled.
type Match struct {
	ID          string
	Date        string
	HomeTeam    string
	AwayTeam    string
	Season      string
	ResultHome  *int
	ResultAway  *int
	League      string
	Market      string
	OddsOpening *OddsSet
	OddsClosing *OddsSet
	XG          *float64
}

// OddsFragment carries prices for one fixture as reported by the odds source.
type OddsFragment struct {
	Date     string
	HomeTeam string
	AwayTeam string
	Prices   *OddsSet
}

// Key identifies the fixture a match or fragment belongs to.
type Key struct {
	Date     string
	HomeTeam string
	AwayTeam string
}

func (m Match) Key() Key {
	return Key{Date: m.Date, HomeTeam: m.HomeTeam, AwayTeam: m.AwayTeam}
}

func (f OddsFragment) Key() Key {
	return Key{Date: f.Date, HomeTeam: f.HomeTeam, AwayTeam: f.AwayTeam}
}

// OddsComplete reports whether the opening prices are populated.
func (m Match) OddsComplete() bool {
	return m.OddsOpening != nil
}

// Pending reports whether the final score is still unknown.
func (m Match) Pending() bool {
	return m.ResultHome == nil || m.ResultAway == nil
}

// ID derives the stable match identifier from the date and canonical team names.
func ID(date time.Time, homeTeam, awayTeam string) string {
	return idPrefix + date.Format("2006_01_02") + "_" + underscore(homeTeam) + "_" + underscore(awayTeam)
}

// SeasonLabel renders a start year as "2023/24".
func SeasonLabel(startYear int) string {
	return fmt.Sprintf("%d/%02d", startYear, (startYear+1)%100)
}

// Clone returns a copy that shares no pointers with m.
func (m Match) Clone() Match {
	out := m
	out.ResultHome = clonePtr(m.ResultHome)
	out.ResultAway = clonePtr(m.ResultAway)
	out.OddsOpening = clonePtr(m.OddsOpening)
	out.OddsClosing = clonePtr(m.OddsClosing)
	out.XG = clonePtr(m.XG)
	return out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func underscore(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}
