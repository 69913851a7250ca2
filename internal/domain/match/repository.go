package match

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("match not found")
	ErrDuplicate = errors.New("match already exists")
)

// Filter narrows Select. Zero values match everything.
type Filter struct {
	Season      string
	Team        string
	WithoutOdds bool
}

// Repository is the persistent match store. Each call succeeds or fails on its own.
type Repository interface {
	Exists(ctx context.Context, matchID string) (bool, error)
	// Insert fails with ErrDuplicate when the id is taken.
	Insert(ctx context.Context, m Match) error
	// Update replaces every field but the id, or fails with ErrNotFound.
	Update(ctx context.Context, matchID string, m Match) error
	Select(ctx context.Context, filter Filter) ([]Match, error)
}
