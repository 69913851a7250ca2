package usecase

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

// matchRules mirrors the persisted shape of a match for struct validation.
type matchRules struct {
	MatchID    string `validate:"required"`
	Date       string `validate:"required"`
	HomeTeam   string `validate:"required"`
	AwayTeam   string `validate:"required"`
	Season     string `validate:"required"`
	ResultHome *int   `validate:"omitempty,gte=0"`
	ResultAway *int   `validate:"omitempty,gte=0"`
}

var ruleFieldNames = map[string]string{
	"MatchID":  "match_id",
	"Date":     "date",
	"HomeTeam": "home_team",
	"AwayTeam": "away_team",
	"Season":   "season",
}

// Validator checks a canonical match before it may be persisted.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns every violation found; an empty slice means the record is valid.
func (v *Validator) Validate(m match.Match) []string {
	rules := matchRules{
		MatchID:    strings.TrimSpace(m.ID),
		Date:       strings.TrimSpace(m.Date),
		HomeTeam:   strings.TrimSpace(m.HomeTeam),
		AwayTeam:   strings.TrimSpace(m.AwayTeam),
		Season:     strings.TrimSpace(m.Season),
		ResultHome: m.ResultHome,
		ResultAway: m.ResultAway,
	}

	reasons := make([]string, 0, 4)
	if err := v.validate.Struct(rules); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return append(reasons, err.Error())
		}
		for _, fieldErr := range fieldErrs {
			switch fieldErr.Field() {
			case "ResultHome":
				reasons = append(reasons, "Invalid home result")
			case "ResultAway":
				reasons = append(reasons, "Invalid away result")
			default:
				reasons = append(reasons, "Missing required field: "+ruleFieldNames[fieldErr.Field()])
			}
		}
	}

	if _, err := time.Parse(match.DateLayout, rules.Date); err != nil {
		reasons = append(reasons, "Invalid date format")
	}
	if (m.ResultHome == nil) != (m.ResultAway == nil) {
		reasons = append(reasons, "Incomplete result: home and away goals must both be present or both absent")
	}
	return reasons
}
