package usecase

import (
	"reflect"
	"testing"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

func validMatch() match.Match {
	return match.Match{
		ID:         "EPL_2023_08_12_Manchester_City_West_Ham_United",
		Date:       "2023-08-12",
		HomeTeam:   "Manchester City",
		AwayTeam:   "West Ham United",
		Season:     "2023/24",
		ResultHome: intPtr(3),
		ResultAway: intPtr(1),
		League:     match.League,
		Market:     match.Market1X2,
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	cases := []struct {
		name   string
		mutate func(*match.Match)
		want   []string
	}{
		{
			name:   "valid",
			mutate: func(*match.Match) {},
			want:   []string{},
		},
		{
			name:   "pending is valid",
			mutate: func(m *match.Match) { m.ResultHome, m.ResultAway = nil, nil },
			want:   []string{},
		},
		{
			name:   "missing date",
			mutate: func(m *match.Match) { m.Date = "" },
			want:   []string{"Missing required field: date", "Invalid date format"},
		},
		{
			name:   "bad date",
			mutate: func(m *match.Match) { m.Date = "12/08/2023" },
			want:   []string{"Invalid date format"},
		},
		{
			name:   "missing teams",
			mutate: func(m *match.Match) { m.HomeTeam, m.AwayTeam = "", " " },
			want:   []string{"Missing required field: home_team", "Missing required field: away_team"},
		},
		{
			name:   "missing id and season",
			mutate: func(m *match.Match) { m.ID, m.Season = "", "" },
			want:   []string{"Missing required field: match_id", "Missing required field: season"},
		},
		{
			name:   "negative goals",
			mutate: func(m *match.Match) { m.ResultHome, m.ResultAway = intPtr(-1), intPtr(-2) },
			want:   []string{"Invalid home result", "Invalid away result"},
		},
		{
			name:   "half a result",
			mutate: func(m *match.Match) { m.ResultAway = nil },
			want:   []string{"Incomplete result: home and away goals must both be present or both absent"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := validMatch()
			tc.mutate(&m)
			got := v.Validate(m)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("unexpected reasons: got=%q want=%q", got, tc.want)
			}
		})
	}
}
