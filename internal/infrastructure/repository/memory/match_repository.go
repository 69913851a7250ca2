package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

type MatchRepository struct {
	mu      sync.RWMutex
	matches map[string]match.Match
}

func NewMatchRepository(seed ...match.Match) *MatchRepository {
	matches := make(map[string]match.Match, len(seed))
	for _, item := range seed {
		matches[item.ID] = item.Clone()
	}
	return &MatchRepository{matches: matches}
}

func (r *MatchRepository) Exists(_ context.Context, matchID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.matches[matchID]
	return ok, nil
}

func (r *MatchRepository) Insert(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.matches[m.ID]; ok {
		return fmt.Errorf("%w: %s", match.ErrDuplicate, m.ID)
	}
	r.matches[m.ID] = m.Clone()
	return nil
}

func (r *MatchRepository) Update(_ context.Context, matchID string, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.matches[matchID]; !ok {
		return fmt.Errorf("%w: %s", match.ErrNotFound, matchID)
	}
	m.ID = matchID
	r.matches[matchID] = m.Clone()
	return nil
}

func (r *MatchRepository) Select(_ context.Context, filter match.Filter) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.matches))
	for _, item := range r.matches {
		if filter.Season != "" && item.Season != filter.Season {
			continue
		}
		if filter.Team != "" && item.HomeTeam != filter.Team && item.AwayTeam != filter.Team {
			continue
		}
		if filter.WithoutOdds && item.OddsOpening != nil {
			continue
		}
		out = append(out, item.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
