package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

func TestMatchRepository_InsertUpdateSelect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMatchRepository()

	first := match.Match{ID: "b", Date: "2024-03-02", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Season: "2023/24"}
	second := match.Match{ID: "a", Date: "2024-03-01", HomeTeam: "Everton", AwayTeam: "Arsenal", Season: "2023/24"}

	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("insert second: %v", err)
	}
	if err := repo.Insert(ctx, first); !errors.Is(err, match.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	first.OddsOpening = &match.OddsSet{Home: 1.5, Draw: 4, Away: 6}
	if err := repo.Update(ctx, first.ID, first); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.Update(ctx, "missing", first); !errors.Is(err, match.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	all, err := repo.Select(ctx, match.Filter{Team: "Arsenal"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Fatalf("unexpected ordering: %+v", all)
	}

	unpriced, err := repo.Select(ctx, match.Filter{WithoutOdds: true})
	if err != nil {
		t.Fatalf("select without odds: %v", err)
	}
	if len(unpriced) != 1 || unpriced[0].ID != "a" {
		t.Fatalf("unexpected unpriced rows: %+v", unpriced)
	}
}

func TestMatchRepository_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMatchRepository(match.Match{ID: "a", OddsOpening: &match.OddsSet{Home: 2}})

	rows, _ := repo.Select(ctx, match.Filter{})
	rows[0].OddsOpening.Home = 99

	again, _ := repo.Select(ctx, match.Filter{})
	if again[0].OddsOpening.Home != 2 {
		t.Fatalf("stored match was mutated through a select result")
	}
}
