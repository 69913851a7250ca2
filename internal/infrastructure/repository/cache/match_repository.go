package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	basecache "github.com/riskibarqy/epl-pipeline/internal/platform/cache"
)

const selectKeyPrefix = "match:select:"

// MatchRepository caches Select results in front of another repository. Any
// successful write drops every cached selection.
type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store[[]match.Match]
}

func NewMatchRepository(next match.Repository, cache *basecache.Store[[]match.Match]) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) Exists(ctx context.Context, matchID string) (bool, error) {
	return r.next.Exists(ctx, matchID)
}

func (r *MatchRepository) Insert(ctx context.Context, m match.Match) error {
	if err := r.next.Insert(ctx, m); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, selectKeyPrefix)
	return nil
}

func (r *MatchRepository) Update(ctx context.Context, matchID string, m match.Match) error {
	if err := r.next.Update(ctx, matchID, m); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, selectKeyPrefix)
	return nil
}

func (r *MatchRepository) Select(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	items, err := r.cache.GetOrLoad(ctx, selectKey(filter), func(ctx context.Context) ([]match.Match, error) {
		return r.next.Select(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return cloneMatches(items), nil
}

func selectKey(filter match.Filter) string {
	return selectKeyPrefix + filter.Season + "|" + filter.Team + "|" + strconv.FormatBool(filter.WithoutOdds)
}

func cloneMatches(items []match.Match) []match.Match {
	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}
