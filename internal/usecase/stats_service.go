package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/domain/team"
)

// TeamStatistics aggregates a team's stored matches. Pending matches count
// towards the match totals only.
type TeamStatistics struct {
	Team         string
	Season       string
	TotalMatches int
	HomeMatches  int
	AwayMatches  int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
}

type StatsService struct {
	repo       match.Repository
	normalizer *team.Normalizer
}

func NewStatsService(repo match.Repository, normalizer *team.Normalizer) *StatsService {
	return &StatsService{repo: repo, normalizer: normalizer}
}

func (s *StatsService) TeamStatistics(ctx context.Context, teamName, season string) (TeamStatistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.TeamStatistics")
	defer span.End()

	teamName = s.normalizer.Normalize(strings.TrimSpace(teamName))
	if teamName == "" {
		return TeamStatistics{}, fmt.Errorf("%w: team is required", ErrInvalidInput)
	}
	season = strings.TrimSpace(season)

	matches, err := s.repo.Select(ctx, match.Filter{Team: teamName, Season: season})
	if err != nil {
		return TeamStatistics{}, fmt.Errorf("select team matches: %w", err)
	}
	if len(matches) == 0 {
		return TeamStatistics{}, fmt.Errorf("%w: no matches for team %q", ErrNotFound, teamName)
	}

	stats := TeamStatistics{Team: teamName, Season: season, TotalMatches: len(matches)}
	for _, m := range matches {
		isHome := m.HomeTeam == teamName
		if isHome {
			stats.HomeMatches++
		} else {
			stats.AwayMatches++
		}
		if m.Pending() {
			continue
		}

		scored, conceded := *m.ResultHome, *m.ResultAway
		if !isHome {
			scored, conceded = conceded, scored
		}
		stats.GoalsFor += scored
		stats.GoalsAgainst += conceded
		switch {
		case scored > conceded:
			stats.Wins++
		case scored == conceded:
			stats.Draws++
		default:
			stats.Losses++
		}
	}
	return stats, nil
}
